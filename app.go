package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/config"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/pkg/logger"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/service"
)

// app holds the services shared by the serve and run commands.
type app struct {
	cfg   *config.Config
	store *service.ArtifactStore
	orch  *service.Orchestrator
	minio *service.MinioService // nil without object storage
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if cfg.Analyzer.URL == "" {
		return nil, errors.New("analyzer.url (or ANALYZER_URL) is required")
	}
	if err := cfg.Paths.Ensure(); err != nil {
		return nil, err
	}

	store, err := service.NewArtifactStore(cfg.Paths.OutputDir)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, store: store}
	deps := service.PipelineDeps{Analyzer: service.NewAnalyzerClient(&cfg.Analyzer)}

	if cfg.Minio.Enabled() {
		a.minio, err = service.NewMinioService(&cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := a.minio.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("object storage: %w", err)
		}
		deps.Stager = a.minio
	}
	if cfg.Mineru.Enabled() {
		deps.Remote = service.NewMineruService(&cfg.Mineru)
	}
	if deps.Remote == nil || deps.Stager == nil {
		logger.Warn(ctx, "remote extraction disabled; only .txt and .md documents can be analysed",
			"mineru", cfg.Mineru.Enabled(), "minio", cfg.Minio.Enabled())
	}

	opts := []service.OrchestratorOption{service.WithStageTimeout(cfg.Pipeline.StageTimeout)}
	if cfg.Pipeline.Layout == config.LayoutFlat {
		opts = append(opts, service.WithFlatLayout())
	}
	a.orch = service.NewOrchestrator(store, service.DefaultStages(deps), opts...)

	logger.Info(ctx, "pipeline configured",
		"output_dir", cfg.Paths.OutputDir,
		"layout", cfg.Pipeline.Layout,
		"stage_timeout", cfg.Pipeline.StageTimeout,
	)
	return a, nil
}

// mirror returns the artifact mirror, or nil without object storage.
func (a *app) mirror() service.ArtifactMirror {
	if a.minio == nil {
		return nil
	}
	return a.minio
}
