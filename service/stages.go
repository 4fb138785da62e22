package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
)

// Stage names of the default pipeline.
const (
	StageExtract = "extract"
	StageSegment = "segment"
	StageAssess  = "assess"
	StageReport  = "report"
)

// DocumentStager makes a job's source document reachable by URL.
type DocumentStager interface {
	StageDocument(ctx context.Context, job *model.Job) (string, error)
}

// RemoteExtractor converts binary documents (PDF, DOCX) to text.
type RemoteExtractor interface {
	CreateTask(ctx context.Context, docURL, dataID string) (*MineruTaskResponse, error)
	WaitForTask(ctx context.Context, taskID string, progress ProgressReporter) (string, error)
	FetchZipAndExtractMarkdown(ctx context.Context, zipURL string) (string, error)
}

// PipelineDeps are the external collaborators of the default stages. Remote
// and Stager may be nil, in which case only plain-text documents can be read.
type PipelineDeps struct {
	Analyzer Analyzer
	Remote   RemoteExtractor
	Stager   DocumentStager
}

// DefaultStages returns extract, segment, assess and report in that order.
func DefaultStages(deps PipelineDeps) []Stage {
	return []Stage{
		NewStage(StageExtract, func(ctx context.Context, sc *StageContext) error {
			return extractText(ctx, sc, deps)
		}),
		NewStage(StageSegment, func(ctx context.Context, sc *StageContext) error {
			return segmentClauses(ctx, sc, deps.Analyzer)
		}),
		NewStage(StageAssess, func(ctx context.Context, sc *StageContext) error {
			return assessRisk(ctx, sc, deps.Analyzer)
		}),
		NewStage(StageReport, func(ctx context.Context, sc *StageContext) error {
			return generateReport(ctx, sc, deps.Analyzer)
		}),
	}
}

// artifactBase is the stem used for every artifact a job writes.
func artifactBase(job *model.Job) string {
	base := strings.TrimLeft(job.BaseName(), ".")
	if base == "" {
		return "document"
	}
	return base
}

func isPlainText(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}

func extractText(ctx context.Context, sc *StageContext, deps PipelineDeps) error {
	var text string
	if isPlainText(sc.Job.SourcePath) {
		data, err := os.ReadFile(sc.Job.SourcePath)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		text = string(data)
	} else {
		if deps.Remote == nil || deps.Stager == nil {
			return fmt.Errorf("no extractor configured for %s documents", filepath.Ext(sc.Job.SourcePath))
		}
		sc.Progress.Report(0, "Uploading document for extraction")
		docURL, err := deps.Stager.StageDocument(ctx, sc.Job)
		if err != nil {
			return fmt.Errorf("stage document: %w", err)
		}
		task, err := deps.Remote.CreateTask(ctx, docURL, sc.Job.ID)
		if err != nil {
			return fmt.Errorf("create extraction task: %w", err)
		}
		zipURL, err := deps.Remote.WaitForTask(ctx, task.Data.TaskID, sc.Progress)
		if err != nil {
			return fmt.Errorf("extraction task %s: %w", task.Data.TaskID, err)
		}
		if text, err = deps.Remote.FetchZipAndExtractMarkdown(ctx, zipURL); err != nil {
			return err
		}
	}

	if strings.TrimSpace(text) == "" {
		return errors.New("no text could be extracted from the document")
	}
	_, err := sc.Write(model.KindExtractedText, artifactBase(sc.Job), []byte(text))
	return err
}

func readText(sc *StageContext) (string, error) {
	a, err := sc.Latest(model.KindExtractedText)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return "", &StoreError{Op: "read", Path: a.Path, Err: err}
	}
	return string(data), nil
}

func readClauses(sc *StageContext, kind model.Kind) ([]model.ClauseRecord, error) {
	a, err := sc.Latest(kind)
	if err != nil {
		return nil, err
	}
	var clauses []model.ClauseRecord
	if err := sc.Store.ReadJSON(a, &clauses); err != nil {
		return nil, err
	}
	return clauses, nil
}

func writeJSON(sc *StageContext, kind model.Kind, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	_, err = sc.Write(kind, artifactBase(sc.Job), data)
	return err
}

func segmentClauses(ctx context.Context, sc *StageContext, analyzer Analyzer) error {
	text, err := readText(sc)
	if err != nil {
		return err
	}
	sc.Progress.Report(10, "Segmenting clauses")
	clauses, err := analyzer.Segment(ctx, text)
	if err != nil {
		return err
	}
	if len(clauses) == 0 {
		return errors.New("no clauses found in document")
	}
	return writeJSON(sc, model.KindClauseSegmentation, clauses)
}

func assessRisk(ctx context.Context, sc *StageContext, analyzer Analyzer) error {
	clauses, err := readClauses(sc, model.KindClauseSegmentation)
	if err != nil {
		return err
	}
	sc.Progress.Report(10, fmt.Sprintf("Assessing risk of %d clauses", len(clauses)))
	assessed, err := analyzer.Assess(ctx, clauses)
	if err != nil {
		return err
	}
	if err := writeJSON(sc, model.KindClauseExtraction, assessed); err != nil {
		return err
	}
	sc.Progress.Report(80, "Writing clause analysis table")

	table, err := clauseTable(assessed)
	if err != nil {
		return err
	}
	_, err = sc.Write(model.KindClauseTable, artifactBase(sc.Job)+"_clause_analysis", table)
	return err
}

// clauseTable renders clause records as CSV, one row per clause.
func clauseTable(clauses []model.ClauseRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"clause_id", "severity", "reasoning", "regulatory_reference", "clause_text"}); err != nil {
		return nil, err
	}
	for _, c := range clauses {
		var risk model.RiskAssessment
		if c.Risk != nil {
			risk = *c.Risk
		}
		row := []string{string(c.ClauseID), risk.Severity, risk.Reasoning, risk.RegulatoryReference, c.ClauseText}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func generateReport(ctx context.Context, sc *StageContext, analyzer Analyzer) error {
	text, err := readText(sc)
	if err != nil {
		return err
	}
	clauses, err := readClauses(sc, model.KindClauseExtraction)
	if err != nil {
		return err
	}

	sc.Progress.Report(10, "Generating amendments")
	result, err := analyzer.Amend(ctx, text, clauses)
	if err != nil {
		return err
	}

	base := artifactBase(sc.Job)
	if result.UpdatedContract != "" {
		if _, err := sc.Write(model.KindUpdatedContractTxt, base+"_updated", []byte(result.UpdatedContract)); err != nil {
			return err
		}
	}
	if len(result.UpdatedContractPDF) > 0 {
		if _, err := sc.Write(model.KindUpdatedContractPDF, base+"_updated", result.UpdatedContractPDF); err != nil {
			return err
		}
	}

	report := model.ComplianceReport{
		AmendedClauses:  result.AmendedClauses,
		InsertedClauses: result.InsertedClauses,
		Score:           result.Score,
	}
	if report.AmendedClauses == nil {
		report.AmendedClauses = []model.ClauseID{}
	}
	if report.InsertedClauses == nil {
		report.InsertedClauses = []string{}
	}
	// Written last: its presence marks a finished job.
	return writeJSON(sc, model.KindComplianceReport, report)
}
