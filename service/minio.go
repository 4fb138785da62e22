package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/config"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"
)

const mirrorParallelism = 4

// MinioService stages source documents for remote extraction and mirrors
// finished job artifacts to object storage.
type MinioService struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewMinioService(cfg *config.MinioConfig) (*MinioService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioService{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *MinioService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// SourceObjectName is where a job's input document is staged.
func SourceObjectName(job *model.Job) string {
	return path.Join(tenantPrefix(job.Tenant), job.ID, "source", job.Filename)
}

// ArtifactObjectName is where a mirrored artifact lives.
func ArtifactObjectName(job *model.Job, name string) string {
	return path.Join(tenantPrefix(job.Tenant), job.ID, "artifacts", name)
}

func tenantPrefix(tenant string) string {
	if tenant == "" {
		return "default"
	}
	return tenant
}

// UploadFile uploads a local file to objectName.
func (s *MinioService) UploadFile(ctx context.Context, objectName, filePath, contentType string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, objectName, filePath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectName, err)
	}
	return nil
}

// PresignedURL generates a download URL valid for the configured number of days.
func (s *MinioService) PresignedURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}

// StageDocument uploads the job's source document and returns a URL the
// extraction service can fetch it from.
func (s *MinioService) StageDocument(ctx context.Context, job *model.Job) (string, error) {
	objectName := SourceObjectName(job)
	if err := s.UploadFile(ctx, objectName, job.SourcePath, documentContentType(job.Filename)); err != nil {
		return "", err
	}
	return s.PresignedURL(ctx, objectName)
}

// MirrorArtifacts uploads a job's artifacts in parallel. The first failure
// cancels the remaining uploads.
func (s *MinioService) MirrorArtifacts(ctx context.Context, job *model.Job, artifacts []model.Artifact) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(mirrorParallelism)
	for _, a := range artifacts {
		g.Go(func() error {
			return s.UploadFile(gCtx, ArtifactObjectName(job, a.Name), a.Path, a.Kind.ContentType())
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info(ctx, "artifacts mirrored", "count", len(artifacts), "bucket", s.bucket)
	return nil
}

// ArtifactURL returns a presigned download URL for a mirrored artifact.
func (s *MinioService) ArtifactURL(ctx context.Context, job *model.Job, name string) (string, error) {
	return s.PresignedURL(ctx, ArtifactObjectName(job, name))
}

// RemoveJob deletes every object stored for a job.
func (s *MinioService) RemoveJob(ctx context.Context, job *model.Job) error {
	prefix := path.Join(tenantPrefix(job.Tenant), job.ID) + "/"
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
	return firstRemoveError(s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}))
}

// firstRemoveError drains results and returns the first failure. The channel
// must be read until closed or the remover goroutine blocks.
func firstRemoveError(results <-chan minio.RemoveObjectError) error {
	var first error
	for result := range results {
		if result.Err != nil && first == nil {
			first = fmt.Errorf("failed to delete %s: %w", result.ObjectName, result.Err)
		}
	}
	return first
}

func documentContentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".md":
		return "text/markdown; charset=utf-8"
	}
	return "application/octet-stream"
}
