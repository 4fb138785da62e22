package service

import (
	"strings"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
)

// RiskSummary counts clauses per severity. Clauses with a missing or
// unrecognised severity count toward Total and Unclassified only, so
// Low+Medium+High may be less than Total.
type RiskSummary struct {
	Total        int `json:"total"`
	Low          int `json:"low"`
	Medium       int `json:"medium"`
	High         int `json:"high"`
	Unclassified int `json:"unclassified"`
}

// Summarize aggregates severities case-insensitively. It is order independent.
func Summarize(clauses []model.ClauseRecord) RiskSummary {
	s := RiskSummary{Total: len(clauses)}
	for _, c := range clauses {
		switch strings.ToLower(c.Severity()) {
		case model.SeverityHigh:
			s.High++
		case model.SeverityMedium:
			s.Medium++
		case model.SeverityLow:
			s.Low++
		default:
			s.Unclassified++
		}
	}
	return s
}

// ClauseView is the per-clause projection shown in the clause deep dive.
type ClauseView struct {
	ClauseID            model.ClauseID `json:"clause_id"`
	Text                string         `json:"clause_text"`
	Severity            string         `json:"severity"`
	Reasoning           string         `json:"reasoning"`
	RegulatoryReference string         `json:"regulatory_reference"`
}

// ClauseViews keeps extraction order. A clause without a severity is
// displayed as LOW even though Summarize leaves it unclassified.
func ClauseViews(clauses []model.ClauseRecord) []ClauseView {
	views := make([]ClauseView, len(clauses))
	for i, c := range clauses {
		v := ClauseView{ClauseID: c.ClauseID, Text: c.ClauseText, Severity: "LOW"}
		if c.Risk != nil {
			if c.Risk.Severity != "" {
				v.Severity = strings.ToUpper(c.Risk.Severity)
			}
			v.Reasoning = c.Risk.Reasoning
			v.RegulatoryReference = c.Risk.RegulatoryReference
		}
		views[i] = v
	}
	return views
}

// LoadClauses reads the latest clause-extraction artifact of scope.
func LoadClauses(store *ArtifactStore, scope string) ([]model.ClauseRecord, *model.Artifact, error) {
	a, err := store.Latest(scope, model.KindClauseExtraction)
	if err != nil {
		return nil, nil, err
	}
	var clauses []model.ClauseRecord
	if err := store.ReadJSON(a, &clauses); err != nil {
		return nil, a, err
	}
	return clauses, a, nil
}
