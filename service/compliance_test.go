package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
	"github.com/google/go-cmp/cmp"
)

func TestReadReportCounts(t *testing.T) {
	report := &model.ComplianceReport{
		AmendedClauses:  []model.ClauseID{"1", "3"},
		InsertedClauses: []string{"Sub-processors require prior written consent."},
	}
	clauses := []model.ClauseRecord{clause("1", "high"), clause("2", "low"), clause("3", "medium")}

	got := ReadReport(report, clauses)

	if got.AmendedCount != 2 || got.InsertedCount != 1 {
		t.Errorf("Expected counts 2/1, got %d/%d", got.AmendedCount, got.InsertedCount)
	}
	if got.ScoreSource != ScoreComputed {
		t.Errorf("Expected computed score, got %s", got.ScoreSource)
	}
	// Only clause 2 (low, weight 1) remains: 100 * (1 - 1/9).
	if got.Score != 88.9 {
		t.Errorf("Expected score 88.9, got %v", got.Score)
	}
}

func TestReadReportPersistedScoreWins(t *testing.T) {
	score := 72.5
	report := &model.ComplianceReport{Score: &score}

	got := ReadReport(report, []model.ClauseRecord{clause("1", "high")})

	want := ComplianceSummary{Score: 72.5, ScoreSource: ScoreFromReport}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unexpected summary (-want +got):\n%s", diff)
	}
}

func TestComplianceScore(t *testing.T) {
	tests := []struct {
		name    string
		amended []model.ClauseID
		clauses []model.ClauseRecord
		want    float64
	}{
		{"no clauses", nil, nil, 100},
		{"all high unamended", nil, []model.ClauseRecord{clause("1", "high"), clause("2", "HIGH")}, 0},
		{"all amended", []model.ClauseID{"1", "2"}, []model.ClauseRecord{clause("1", "high"), clause("2", "medium")}, 100},
		{"unclassified carries no weight", nil, []model.ClauseRecord{clause("1", ""), clause("2", "unknown")}, 100},
		{"one medium of two", nil, []model.ClauseRecord{clause("1", "medium"), clause("2", "")}, 66.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := &model.ComplianceReport{AmendedClauses: tt.amended}
			if got := ComplianceScore(report, tt.clauses); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestInsertedPreview(t *testing.T) {
	short := "Short clause."
	if got := InsertedPreview(short); got != short {
		t.Errorf("Expected unchanged text, got %q", got)
	}

	long := strings.Repeat("é", 150)
	got := InsertedPreview(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Expected ellipsis, got %q", got)
	}
	if n := len([]rune(strings.TrimSuffix(got, "..."))); n != 100 {
		t.Errorf("Expected 100 runes kept, got %d", n)
	}

	exact := strings.Repeat("a", 100)
	if got := InsertedPreview(exact); got != exact {
		t.Error("Expected text of exactly 100 runes to be unchanged")
	}
}

func TestLoadReport(t *testing.T) {
	store := newTestArtifactStore(t)

	if _, _, err := LoadReport(store, "job"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	store.Write("job", model.KindComplianceReport, "lease", []byte(`{"amended_clauses":[1,"2"],"inserted_clauses":["x"]}`))

	report, a, err := LoadReport(store, "job")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if a.Kind != model.KindComplianceReport {
		t.Errorf("Expected compliance-report kind, got %s", a.Kind)
	}
	want := []model.ClauseID{"1", "2"}
	if diff := cmp.Diff(want, report.AmendedClauses); diff != "" {
		t.Errorf("Unexpected amended ids (-want +got):\n%s", diff)
	}
	if report.Score != nil {
		t.Error("Expected no persisted score")
	}
}
