package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/config"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create zip entry: %v", err)
		}
		w.Write([]byte(content))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func TestNewMineruService(t *testing.T) {
	cfg := &config.MineruConfig{
		APIURL:       "https://api.mineru.test",
		APIToken:     "test-token",
		ModelVersion: "vlm",
	}

	svc := NewMineruService(cfg)
	if svc == nil {
		t.Fatal("Expected non-nil service")
	}
	if svc.config != cfg {
		t.Error("Expected config to be set")
	}
	if svc.httpClient == nil {
		t.Error("Expected httpClient to be set")
	}
}

func TestMineruServiceCreateTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/extract/task" {
			t.Errorf("Expected /extract/task, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Error("Expected Authorization header")
		}

		var reqBody MineruTaskRequest
		json.NewDecoder(r.Body).Decode(&reqBody)
		if reqBody.URL != "http://example.com/test.pdf" || reqBody.DataID != "job-123" {
			t.Errorf("Unexpected request body %+v", reqBody)
		}
		if reqBody.ModelVersion != "vlm" {
			t.Errorf("Expected model version vlm, got %s", reqBody.ModelVersion)
		}

		response := MineruTaskResponse{Code: 0, Message: "success"}
		response.Data.TaskID = "task-123"
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	svc := NewMineruService(&config.MineruConfig{
		APIURL:       server.URL,
		APIToken:     "test-token",
		ModelVersion: "vlm",
	})
	resp, err := svc.CreateTask(context.Background(), "http://example.com/test.pdf", "job-123")

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.Data.TaskID != "task-123" {
		t.Errorf("Expected task ID 'task-123', got '%s'", resp.Data.TaskID)
	}
}

func TestMineruServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"api error", `{"code":1,"msg":"API error"}`},
		{"invalid json", "not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc := NewMineruService(&config.MineruConfig{APIURL: server.URL, APIToken: "test-token"})

			if _, err := svc.CreateTask(context.Background(), "http://example.com/test.pdf", "job"); err == nil {
				t.Error("Expected CreateTask error")
			}
			if _, err := svc.GetTaskStatus(context.Background(), "task-123"); err == nil {
				t.Error("Expected GetTaskStatus error")
			}
		})
	}
}

func TestMineruServiceNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	svc := NewMineruService(&config.MineruConfig{APIURL: url, APIToken: "test-token"})

	if _, err := svc.CreateTask(context.Background(), "http://example.com/test.pdf", "job"); err == nil {
		t.Error("Expected error for network failure")
	}
	if _, err := svc.GetTaskStatus(context.Background(), "task-123"); err == nil {
		t.Error("Expected error for network failure")
	}
	if _, err := svc.FetchZipAndExtractMarkdown(context.Background(), url+"/result.zip"); err == nil {
		t.Error("Expected error for network failure")
	}
}

func TestMineruServiceGetTaskStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/extract/task/task-123" {
			t.Errorf("Expected /extract/task/task-123, got %s", r.URL.Path)
		}

		response := MineruTaskStatusResponse{Code: 0}
		response.Data.TaskID = "task-123"
		response.Data.State = "done"
		response.Data.FullZipURL = "http://example.com/result.zip"
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	svc := NewMineruService(&config.MineruConfig{APIURL: server.URL, APIToken: "test-token"})
	status, err := svc.GetTaskStatus(context.Background(), "task-123")

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if status.Data.State != "done" {
		t.Errorf("Expected state 'done', got '%s'", status.Data.State)
	}
	if status.Data.FullZipURL != "http://example.com/result.zip" {
		t.Errorf("Expected zip URL, got '%s'", status.Data.FullZipURL)
	}
}

func TestMineruServiceWaitForTask(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := polls.Add(1)
		response := MineruTaskStatusResponse{Code: 0}
		switch n {
		case 1:
			w.Write([]byte("temporarily broken"))
			return
		case 2:
			response.Data.State = "running"
			response.Data.ExtractProgress.ExtractedPages = 3
			response.Data.ExtractProgress.TotalPages = 12
		default:
			response.Data.State = "done"
			response.Data.FullZipURL = "http://example.com/result.zip"
		}
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	svc := NewMineruService(&config.MineruConfig{
		APIURL:       server.URL,
		APIToken:     "test-token",
		PollInterval: 5 * time.Millisecond,
	})
	rec := &recordingProgress{}

	zipURL, err := svc.WaitForTask(context.Background(), "task-123", rec)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if zipURL != "http://example.com/result.zip" {
		t.Errorf("Unexpected zip URL %s", zipURL)
	}
	events := rec.Events()
	if len(events) != 1 || events[0].Percent != 25 {
		t.Errorf("Expected one 25%% page progress event, got %+v", events)
	}
}

func TestMineruServiceWaitForTaskFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := MineruTaskStatusResponse{Code: 0}
		response.Data.State = "failed"
		response.Data.ErrorMsg = "unsupported file"
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	svc := NewMineruService(&config.MineruConfig{APIURL: server.URL, PollInterval: time.Millisecond})

	_, err := svc.WaitForTask(context.Background(), "task-123", NopProgress)
	if err == nil || !strings.Contains(err.Error(), "unsupported file") {
		t.Errorf("Expected task failure, got %v", err)
	}
}

func TestMineruServiceWaitForTaskHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := MineruTaskStatusResponse{Code: 0}
		response.Data.State = "pending"
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	svc := NewMineruService(&config.MineruConfig{APIURL: server.URL, PollInterval: time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := svc.WaitForTask(ctx, "task-123", NopProgress); err != context.DeadlineExceeded {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}

func TestMineruServiceFetchZipAndExtractMarkdown(t *testing.T) {
	archive := buildZip(t, map[string]string{
		"images/page1.png":   "png",
		"layout.json":        "{}",
		"auto/full.md":       "# Master Services Agreement",
		"auto/appendix_a.md": "# Appendix",
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	svc := NewMineruService(&config.MineruConfig{})
	text, err := svc.FetchZipAndExtractMarkdown(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if text != "# Master Services Agreement" {
		t.Errorf("Expected full.md content, got %q", text)
	}
}

func TestExtractMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		want    string
		wantErr bool
	}{
		{"fallback md", map[string]string{"doc.md": "body", "meta.json": "{}"}, "body", false},
		{"no markdown", map[string]string{"meta.json": "{}"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractMarkdown(buildZip(t, tt.files))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unexpected error state: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}

	if _, err := extractMarkdown([]byte("not a zip file")); err == nil {
		t.Error("Expected error for invalid ZIP")
	}
}

func TestMineruServiceFetchZipBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	svc := NewMineruService(&config.MineruConfig{})
	if _, err := svc.FetchZipAndExtractMarkdown(context.Background(), server.URL); err == nil {
		t.Error("Expected error for non-200 download")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc..." {
		t.Errorf("Expected abc..., got %s", got)
	}
	if got := truncate("ab", 3); got != "ab" {
		t.Errorf("Expected ab, got %s", got)
	}
}
