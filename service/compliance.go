package service

import (
	"math"
	"strings"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
)

// Score sources
const (
	ScoreFromReport   = "report"
	ScoreComputed     = "computed"
	previewRunes      = 100
	severityWeightMax = 3
)

// ComplianceSummary is the projection of a compliance report shown as the
// action summary.
type ComplianceSummary struct {
	AmendedCount  int     `json:"amended_count"`
	InsertedCount int     `json:"inserted_count"`
	Score         float64 `json:"score"`
	ScoreSource   string  `json:"score_source"`
}

// ReadReport projects report. A score persisted in the report wins; otherwise
// it is computed from the clauses left unamended.
func ReadReport(report *model.ComplianceReport, clauses []model.ClauseRecord) ComplianceSummary {
	s := ComplianceSummary{
		AmendedCount:  len(report.AmendedClauses),
		InsertedCount: len(report.InsertedClauses),
	}
	if report.Score != nil {
		s.Score = *report.Score
		s.ScoreSource = ScoreFromReport
		return s
	}
	s.Score = ComplianceScore(report, clauses)
	s.ScoreSource = ScoreComputed
	return s
}

func severityWeight(sev string) int {
	switch strings.ToLower(sev) {
	case model.SeverityHigh:
		return 3
	case model.SeverityMedium:
		return 2
	case model.SeverityLow:
		return 1
	}
	return 0
}

// ComplianceScore is 100 scaled down by the risk still present after
// amendment: every clause not listed as amended contributes its severity
// weight (high 3, medium 2, low 1, unclassified 0) out of a maximum of 3 per
// clause. No clauses scores 100. The result has one decimal place.
func ComplianceScore(report *model.ComplianceReport, clauses []model.ClauseRecord) float64 {
	if len(clauses) == 0 {
		return 100
	}
	amended := make(map[model.ClauseID]bool, len(report.AmendedClauses))
	for _, id := range report.AmendedClauses {
		amended[id] = true
	}

	remaining := 0
	for _, c := range clauses {
		if amended[c.ClauseID] {
			continue
		}
		remaining += severityWeight(c.Severity())
	}

	score := 100 * (1 - float64(remaining)/float64(severityWeightMax*len(clauses)))
	return math.Round(score*10) / 10
}

// InsertedPreview shortens an inserted clause for list display.
func InsertedPreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "..."
}

// LoadReport reads the latest compliance-report artifact of scope.
func LoadReport(store *ArtifactStore, scope string) (*model.ComplianceReport, *model.Artifact, error) {
	a, err := store.Latest(scope, model.KindComplianceReport)
	if err != nil {
		return nil, nil, err
	}
	var report model.ComplianceReport
	if err := store.ReadJSON(a, &report); err != nil {
		return nil, a, err
	}
	return &report, a, nil
}
