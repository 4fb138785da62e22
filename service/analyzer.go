package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/config"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
)

// Analyzer performs the language-model stages of the pipeline.
type Analyzer interface {
	Segment(ctx context.Context, text string) ([]model.ClauseRecord, error)
	Assess(ctx context.Context, clauses []model.ClauseRecord) ([]model.ClauseRecord, error)
	Amend(ctx context.Context, text string, clauses []model.ClauseRecord) (*AmendResult, error)
}

// AmendResult is the analysis service's answer to an amendment request.
type AmendResult struct {
	AmendedClauses  []model.ClauseID `json:"amended_clauses"`
	InsertedClauses []string         `json:"inserted_clauses"`
	UpdatedContract string           `json:"updated_contract"`
	// UpdatedContractPDF is base64 in the JSON body.
	UpdatedContractPDF []byte   `json:"updated_contract_pdf,omitempty"`
	Score              *float64 `json:"score,omitempty"`
}

type segmentRequest struct {
	Text string `json:"text"`
}

type clausesPayload struct {
	Clauses []model.ClauseRecord `json:"clauses"`
}

type amendRequest struct {
	Text    string               `json:"text"`
	Clauses []model.ClauseRecord `json:"clauses"`
}

// AnalyzerClient is the HTTP implementation of Analyzer.
type AnalyzerClient struct {
	url        string
	token      string
	httpClient *http.Client
}

func NewAnalyzerClient(cfg *config.AnalyzerConfig) *AnalyzerClient {
	return &AnalyzerClient{
		url:        cfg.URL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *AnalyzerClient) post(ctx context.Context, endpoint string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned status %d: %s", endpoint, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// Segment splits contract text into clauses.
func (c *AnalyzerClient) Segment(ctx context.Context, text string) ([]model.ClauseRecord, error) {
	var out clausesPayload
	if err := c.post(ctx, "/segment", segmentRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return out.Clauses, nil
}

// Assess attaches a risk assessment to every clause.
func (c *AnalyzerClient) Assess(ctx context.Context, clauses []model.ClauseRecord) ([]model.ClauseRecord, error) {
	var out clausesPayload
	if err := c.post(ctx, "/assess", clausesPayload{Clauses: clauses}, &out); err != nil {
		return nil, err
	}
	return out.Clauses, nil
}

// Amend generates amendments and missing clauses for the assessed contract.
func (c *AnalyzerClient) Amend(ctx context.Context, text string, clauses []model.ClauseRecord) (*AmendResult, error) {
	var out AmendResult
	if err := c.post(ctx, "/amend", amendRequest{Text: text, Clauses: clauses}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
