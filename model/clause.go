package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Severity levels as written by the risk scoring stage. Matching is case-insensitive.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// ClauseID identifies a clause within one artifact. Upstream stages emit it
// either as a JSON string or as a number; both decode to the same value.
type ClauseID string

func (id *ClauseID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ClauseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("clause id must be a string or number: %s", data)
	}
	*id = ClauseID(n.String())
	return nil
}

// RiskAssessment is the risk scoring stage's verdict on one clause.
type RiskAssessment struct {
	Severity            string `json:"severity,omitempty"`
	Reasoning           string `json:"reasoning,omitempty"`
	RegulatoryReference string `json:"regulatory_reference,omitempty"`
}

// ClauseRecord is one entry of a clause-extraction artifact.
type ClauseRecord struct {
	ClauseID   ClauseID        `json:"clause_id"`
	ClauseText string          `json:"clause_text"`
	Risk       *RiskAssessment `json:"risk,omitempty"`
}

// Severity returns the raw severity, "" when the clause carries no assessment.
func (c ClauseRecord) Severity() string {
	if c.Risk == nil {
		return ""
	}
	return c.Risk.Severity
}
