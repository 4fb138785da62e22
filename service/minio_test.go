package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/config"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
	"github.com/minio/minio-go/v7"
)

func newTestMinio(t *testing.T) *MinioService {
	t.Helper()
	svc, err := NewMinioService(&config.MinioConfig{
		Endpoint:   "127.0.0.1:1",
		AccessKey:  "test",
		SecretKey:  "test",
		Bucket:     "contracts",
		ExpireDays: 7,
	})
	if err != nil {
		t.Fatalf("Failed to create MinIO service: %v", err)
	}
	return svc
}

func TestNewMinioService(t *testing.T) {
	svc := newTestMinio(t)
	if svc.bucket != "contracts" {
		t.Errorf("Expected bucket contracts, got %s", svc.bucket)
	}

	if _, err := NewMinioService(&config.MinioConfig{Endpoint: "localhost:9000/path"}); err == nil {
		t.Error("Expected error for malformed endpoint")
	}
}

func TestFirstRemoveErrorDrainsResults(t *testing.T) {
	results := make(chan minio.RemoveObjectError, 4)
	results <- minio.RemoveObjectError{ObjectName: "acme/job-1/artifacts/a.csv"}
	results <- minio.RemoveObjectError{ObjectName: "acme/job-1/artifacts/b.txt", Err: errors.New("access denied")}
	results <- minio.RemoveObjectError{ObjectName: "acme/job-1/artifacts/c.pdf", Err: errors.New("timeout")}
	results <- minio.RemoveObjectError{ObjectName: "acme/job-1/source/lease.pdf"}
	close(results)

	err := firstRemoveError(results)
	if err == nil || !strings.Contains(err.Error(), "b.txt") || !strings.Contains(err.Error(), "access denied") {
		t.Errorf("Expected the first failure, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected every result to be read, %d left", len(results))
	}
}

func TestFirstRemoveErrorSuccess(t *testing.T) {
	results := make(chan minio.RemoveObjectError, 1)
	results <- minio.RemoveObjectError{ObjectName: "acme/job-1/artifacts/a.csv"}
	close(results)

	if err := firstRemoveError(results); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestObjectNames(t *testing.T) {
	job := &model.Job{ID: "job-1", Tenant: "acme", Filename: "lease.pdf"}

	if got := SourceObjectName(job); got != "acme/job-1/source/lease.pdf" {
		t.Errorf("Unexpected source object %s", got)
	}
	if got := ArtifactObjectName(job, "lease_m2_output.json"); got != "acme/job-1/artifacts/lease_m2_output.json" {
		t.Errorf("Unexpected artifact object %s", got)
	}

	job.Tenant = ""
	if got := ArtifactObjectName(job, "x.csv"); got != "default/job-1/artifacts/x.csv" {
		t.Errorf("Expected default tenant prefix, got %s", got)
	}
}

func TestDocumentContentType(t *testing.T) {
	tests := map[string]string{
		"a.PDF":  "application/pdf",
		"b.docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"c.txt":  "text/plain; charset=utf-8",
		"d.md":   "text/markdown; charset=utf-8",
		"e.bin":  "application/octet-stream",
	}
	for name, want := range tests {
		if got := documentContentType(name); got != want {
			t.Errorf("%s: expected %s, got %s", name, want, got)
		}
	}
}

func TestMinioServiceMirrorNothing(t *testing.T) {
	svc := newTestMinio(t)
	if err := svc.MirrorArtifacts(context.Background(), &model.Job{ID: "job"}, nil); err != nil {
		t.Errorf("Expected no error mirroring no artifacts, got %v", err)
	}
}

func TestMinioServiceUploadFailsWithCanceledContext(t *testing.T) {
	svc := newTestMinio(t)
	doc := writeDocument(t, "lease.txt", "text")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := &model.Job{ID: "job", Filename: "lease.txt", SourcePath: doc}
	if _, err := svc.StageDocument(ctx, job); err == nil {
		t.Error("Expected staging to fail with a canceled context")
	}

	artifacts := []model.Artifact{{Name: "lease_updated.txt", Path: filepath.Join(filepath.Dir(doc), "lease.txt"), Kind: model.KindUpdatedContractTxt}}
	if err := svc.MirrorArtifacts(ctx, job, artifacts); err == nil {
		t.Error("Expected mirroring to fail with a canceled context")
	}
}
