package model

// ComplianceReport is the terminal artifact of a job.
type ComplianceReport struct {
	AmendedClauses  []ClauseID `json:"amended_clauses"`
	InsertedClauses []string   `json:"inserted_clauses"`
	// Score is optional; older reports omit it.
	Score *float64 `json:"score,omitempty"`
}
