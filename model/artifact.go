package model

import (
	"strings"
	"time"
)

// Kind categorises an artifact. It is derived from the filename suffix.
type Kind string

const (
	KindUnknown            Kind = ""
	KindAny                Kind = "*"
	KindExtractedText      Kind = "extracted-text"
	KindClauseSegmentation Kind = "clause-segmentation"
	KindClauseExtraction   Kind = "clause-extraction"
	KindComplianceReport   Kind = "compliance-report"
	KindUpdatedContractTxt Kind = "updated-contract-text"
	KindUpdatedContractPDF Kind = "updated-contract-pdf"
	KindClauseTable        Kind = "clause-analysis-table"
)

// kindSuffixes is ordered most specific first; KindOf returns the first match.
var kindSuffixes = []struct {
	kind   Kind
	suffix string
}{
	{KindComplianceReport, "_m3_compliance_report.json"},
	{KindClauseExtraction, "_m2_output.json"},
	{KindClauseSegmentation, "_m1_clauses.json"},
	{KindExtractedText, "_m1_extracted.md"},
	{KindUpdatedContractTxt, ".txt"},
	{KindUpdatedContractPDF, ".pdf"},
	{KindClauseTable, ".csv"},
}

// Kinds lists every recognised artifact kind.
func Kinds() []Kind {
	kinds := make([]Kind, len(kindSuffixes))
	for i, ks := range kindSuffixes {
		kinds[i] = ks.kind
	}
	return kinds
}

// Suffix returns the filename suffix for a kind, or "" for unknown kinds.
func (k Kind) Suffix() string {
	for _, ks := range kindSuffixes {
		if ks.kind == k {
			return ks.suffix
		}
	}
	return ""
}

// Label is the human readable name shown next to a download.
func (k Kind) Label() string {
	switch k {
	case KindUpdatedContractTxt:
		return "Updated Contract (TXT)"
	case KindUpdatedContractPDF:
		return "Updated Contract (PDF)"
	case KindClauseTable:
		return "Clause Analysis (CSV)"
	case KindExtractedText:
		return "Extracted Text (Markdown)"
	case KindClauseExtraction, KindComplianceReport, KindClauseSegmentation:
		return "Compliance Data (JSON)"
	}
	return ""
}

// ContentType is used when serving or mirroring an artifact.
func (k Kind) ContentType() string {
	switch k {
	case KindUpdatedContractTxt:
		return "text/plain; charset=utf-8"
	case KindExtractedText:
		return "text/markdown; charset=utf-8"
	case KindUpdatedContractPDF:
		return "application/pdf"
	case KindClauseTable:
		return "text/csv"
	case KindClauseExtraction, KindComplianceReport, KindClauseSegmentation:
		return "application/json"
	}
	return "application/octet-stream"
}

// KindOf resolves the artifact kind of a filename.
func KindOf(name string) Kind {
	lower := strings.ToLower(name)
	for _, ks := range kindSuffixes {
		if strings.HasSuffix(lower, ks.suffix) {
			return ks.kind
		}
	}
	return KindUnknown
}

// Artifact describes one persisted output file.
type Artifact struct {
	Job     string    `json:"job,omitempty"`
	Kind    Kind      `json:"kind"`
	Name    string    `json:"name"`
	Path    string    `json:"-"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}
