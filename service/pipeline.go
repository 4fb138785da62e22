package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/pkg/logger"
	"github.com/google/uuid"
)

// StageContext is a stage's view of the job it runs in.
type StageContext struct {
	Job      *model.Job
	Scope    string
	Store    *ArtifactStore
	Progress ProgressReporter
}

// Write stores an artifact produced by the stage in the job's scope.
func (sc *StageContext) Write(kind model.Kind, base string, content []byte) (*model.Artifact, error) {
	return sc.Store.Write(sc.Scope, kind, base, content)
}

// Latest returns the job's most recent artifact of kind.
func (sc *StageContext) Latest(kind model.Kind) (*model.Artifact, error) {
	return sc.Store.Latest(sc.Scope, kind)
}

// Stage is one step of the analysis pipeline. Implementations should honour
// ctx cancellation; the orchestrator waits for Run to return.
type Stage interface {
	Name() string
	Run(ctx context.Context, sc *StageContext) error
}

type funcStage struct {
	name string
	fn   func(ctx context.Context, sc *StageContext) error
}

func (s funcStage) Name() string { return s.name }

func (s funcStage) Run(ctx context.Context, sc *StageContext) error { return s.fn(ctx, sc) }

// NewStage builds a Stage from a function.
func NewStage(name string, fn func(ctx context.Context, sc *StageContext) error) Stage {
	return funcStage{name: name, fn: fn}
}

// Orchestrator drives the fixed stage sequence for one document at a time
// per call. Concurrent calls are safe when each uses its own job scope.
type Orchestrator struct {
	store        *ArtifactStore
	stages       []Stage
	stageTimeout time.Duration
	flat         bool
	required     []model.Kind
}

type OrchestratorOption func(*Orchestrator)

// WithStageTimeout bounds each stage; zero disables the bound.
func WithStageTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.stageTimeout = d }
}

// WithFlatLayout writes every job into the shared output directory instead
// of a per-job subdirectory.
func WithFlatLayout() OrchestratorOption {
	return func(o *Orchestrator) { o.flat = true }
}

// WithRequiredKinds replaces the artifact kinds a successful run must leave behind.
func WithRequiredKinds(kinds ...model.Kind) OrchestratorOption {
	return func(o *Orchestrator) { o.required = kinds }
}

func NewOrchestrator(store *ArtifactStore, stages []Stage, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		stages:   stages,
		required: []model.Kind{model.KindClauseExtraction, model.KindComplianceReport},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Store returns the artifact store the orchestrator writes to.
func (o *Orchestrator) Store() *ArtifactStore {
	return o.store
}

// Scope returns the artifact scope of a job.
func (o *Orchestrator) Scope(job *model.Job) string {
	if o.flat {
		return ""
	}
	return job.ID
}

// LatestScope resolves the scope read by "latest" views: the shared directory
// in the flat layout, otherwise the job with the newest compliance report
// that keep accepts.
func (o *Orchestrator) LatestScope(keep func(scope string) bool) (string, error) {
	if o.flat {
		return "", nil
	}
	return o.store.LatestJob(keep)
}

// NewJob allocates a job for the document at path.
func (o *Orchestrator) NewJob(path string) *model.Job {
	now := o.store.now()
	return &model.Job{
		ID:         uuid.New().String(),
		Filename:   filepath.Base(path),
		SourcePath: path,
		Status:     model.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ValidateDocument checks that path names a readable, non-empty regular file.
func ValidateDocument(path string) error {
	if path == "" {
		return &InputError{Path: path, Err: errors.New("no document path given")}
	}
	info, err := os.Stat(path)
	if err != nil {
		return &InputError{Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &InputError{Path: path, Err: errors.New("not a regular file")}
	}
	if info.Size() == 0 {
		return &InputError{Path: path, Err: errors.New("document is empty")}
	}
	f, err := os.Open(path)
	if err != nil {
		return &InputError{Path: path, Err: err}
	}
	return f.Close()
}

// RunPipeline runs the pipeline on a fresh job for documentPath.
func (o *Orchestrator) RunPipeline(ctx context.Context, documentPath string, sink ProgressReporter) (*model.Job, error) {
	job := o.NewJob(documentPath)
	return job, o.Run(ctx, job, sink)
}

// Run executes every stage in order for job and blocks until they finish or
// one fails. Artifacts written by completed stages are kept on failure.
//
// On success the store holds every required artifact kind with a modification
// time no earlier than job.StartedAt.
func (o *Orchestrator) Run(ctx context.Context, job *model.Job, sink ProgressReporter) error {
	if sink == nil {
		sink = NopProgress
	}
	if err := ValidateDocument(job.SourcePath); err != nil {
		return err
	}

	ctx = logger.WithJob(ctx, job.ID)
	job.StartedAt = o.store.now()
	scope := o.Scope(job)
	n := len(o.stages)

	for i, stage := range o.stages {
		idx := i + 1
		if err := ctx.Err(); err != nil {
			logger.Warn(ctx, "pipeline canceled", "before_stage", stage.Name())
			return fmt.Errorf("pipeline canceled before stage %d (%s): %w", idx, stage.Name(), err)
		}

		from, to := i*100/n, idx*100/n
		sink.Report(from, fmt.Sprintf("Stage %d/%d: %s", idx, n, stage.Name()))

		logger.Info(ctx, "stage started", "stage", stage.Name(), "stage_index", idx)
		started := time.Now()

		sc := &StageContext{
			Job:      job,
			Scope:    scope,
			Store:    o.store,
			Progress: scopedProgress{next: sink, from: from, to: to},
		}
		if err := o.runStage(ctx, idx, stage, sc); err != nil {
			logger.Error(ctx, "stage failed", "stage", stage.Name(), "stage_index", idx, "error", err)
			return err
		}

		logger.Info(ctx, "stage finished", "stage", stage.Name(), "stage_index", idx,
			"duration_ms", time.Since(started).Milliseconds())
	}

	if err := o.verify(scope, job.StartedAt); err != nil {
		logger.Error(ctx, "pipeline finished without required artifacts", "error", err)
		return err
	}

	sink.Report(100, "Pipeline complete")
	return nil
}

func (o *Orchestrator) runStage(ctx context.Context, idx int, stage Stage, sc *StageContext) error {
	stageCtx := ctx
	cancel := context.CancelFunc(func() {})
	if o.stageTimeout > 0 {
		stageCtx, cancel = context.WithTimeout(ctx, o.stageTimeout)
	}
	defer cancel()

	err := callStage(stageCtx, stage, sc)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("stage %d (%s) interrupted: %w", idx, stage.Name(), ctx.Err())
	}
	if errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
		return &StageTimeoutError{Stage: stage.Name(), Index: idx, Timeout: o.stageTimeout}
	}
	return &StageError{Stage: stage.Name(), Index: idx, Err: err}
}

func callStage(ctx context.Context, stage Stage, sc *StageContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "stage panicked", "stage", stage.Name(), "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return stage.Run(ctx, sc)
}

func (o *Orchestrator) verify(scope string, since time.Time) error {
	var last Stage
	if n := len(o.stages); n > 0 {
		last = o.stages[n-1]
	}
	missing := func(err error) error {
		if last == nil {
			return &StageError{Stage: "", Index: 0, Err: err}
		}
		return &StageError{Stage: last.Name(), Index: len(o.stages), Err: err}
	}

	for _, kind := range o.required {
		a, err := o.store.Latest(scope, kind)
		if errors.Is(err, ErrNotFound) {
			return missing(fmt.Errorf("%w: %s", ErrMissingArtifact, kind))
		}
		if err != nil {
			return err
		}
		if a.ModTime.Before(since) {
			return missing(fmt.Errorf("%w: %s (latest %s predates the run)", ErrMissingArtifact, kind, a.Name))
		}
	}
	return nil
}
