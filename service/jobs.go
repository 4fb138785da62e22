package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/pkg/logger"
)

// ArtifactMirror copies a finished job's artifacts somewhere durable.
type ArtifactMirror interface {
	MirrorArtifacts(ctx context.Context, job *model.Job, artifacts []model.Artifact) error
}

type progressEvent struct {
	percent int
	phase   string
}

// progressBuffer bounds the per-job progress channel. When the consumer falls
// behind, further events are dropped rather than stalling the pipeline.
const progressBuffer = 32

// JobRunner runs pipeline jobs in the background, one goroutine per job, and
// records their progress and outcome in a JobStore.
type JobRunner struct {
	orch   *Orchestrator
	jobs   *JobStore
	mirror ArtifactMirror

	base context.Context
	stop context.CancelFunc

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewJobRunner wires a runner. mirror may be nil.
func NewJobRunner(orch *Orchestrator, jobs *JobStore, mirror ArtifactMirror) *JobRunner {
	base, stop := context.WithCancel(context.Background())
	return &JobRunner{
		orch:    orch,
		jobs:    jobs,
		mirror:  mirror,
		base:    base,
		stop:    stop,
		cancels: make(map[string]context.CancelFunc),
	}
}

// Jobs returns the runner's job registry.
func (r *JobRunner) Jobs() *JobStore {
	return r.jobs
}

// Orchestrator returns the orchestrator jobs run on.
func (r *JobRunner) Orchestrator() *Orchestrator {
	return r.orch
}

// Submit validates the document and starts a job for it. Input errors are
// returned immediately and no job is recorded. The job outlives ctx; only its
// logging values are kept.
func (r *JobRunner) Submit(ctx context.Context, tenant, filename, sourcePath string) (*model.Job, error) {
	if err := ValidateDocument(sourcePath); err != nil {
		return nil, err
	}

	job := r.orch.NewJob(sourcePath)
	job.Tenant = tenant
	if filename != "" {
		job.Filename = filename
	}
	r.jobs.Save(job)

	jobCtx, cancel := context.WithCancel(logger.WithJob(context.WithoutCancel(ctx), job.ID))
	stopAfter := context.AfterFunc(r.base, cancel)

	r.mu.Lock()
	r.cancels[job.ID] = cancel
	r.mu.Unlock()

	logger.Info(jobCtx, "job submitted", "filename", job.Filename)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			stopAfter()
			cancel()
			r.mu.Lock()
			delete(r.cancels, job.ID)
			r.mu.Unlock()
		}()
		r.run(jobCtx, job)
	}()

	return r.jobs.Get(job.ID), nil
}

func (r *JobRunner) run(ctx context.Context, job *model.Job) {
	r.jobs.UpdateStatus(job.ID, model.StatusProcessing, "")

	events := make(chan progressEvent, progressBuffer)
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for ev := range events {
			r.jobs.UpdateProgress(job.ID, ev.percent, ev.phase)
		}
	}()
	sink := ProgressFunc(func(percent int, phase string) {
		select {
		case events <- progressEvent{percent: percent, phase: phase}:
		default:
		}
	})

	err := r.orch.Run(ctx, job, sink)
	close(events)
	<-consumed

	var mirrorErr error
	if err == nil && r.mirror != nil {
		mirrorErr = r.mirrorJob(ctx, job)
	}

	finished := time.Now()
	r.jobs.Update(job.ID, func(j *model.Job) {
		j.StartedAt = job.StartedAt
		j.FinishedAt = &finished
		if mirrorErr != nil {
			j.MirrorError = mirrorErr.Error()
		}
		switch {
		case err == nil:
			j.Status = model.StatusCompleted
			j.Progress = 100
			j.Phase = "Pipeline complete"
		case errors.Is(err, context.Canceled):
			j.Status = model.StatusCanceled
			j.FailedStage = FailedStage(err)
			j.ErrorMsg = err.Error()
		default:
			j.Status = model.StatusFailed
			j.FailedStage = FailedStage(err)
			j.ErrorMsg = err.Error()
		}
	})

	switch {
	case err == nil:
		logger.Info(ctx, "job completed", "duration_ms", finished.Sub(job.StartedAt).Milliseconds())
	case errors.Is(err, context.Canceled):
		logger.Warn(ctx, "job canceled", "error", err)
	default:
		logger.Error(ctx, "job failed", "stage", FailedStage(err), "error", err)
	}
}

func (r *JobRunner) mirrorJob(ctx context.Context, job *model.Job) error {
	artifacts, err := r.orch.Store().List(r.orch.Scope(job), model.KindAny)
	if err != nil {
		return err
	}
	if err := r.mirror.MirrorArtifacts(ctx, job, artifacts); err != nil {
		logger.Error(ctx, "artifact mirroring failed", "error", err)
		return err
	}
	return nil
}

// Cancel requests cancellation of a running job. The job stops at the next
// stage boundary or when its current stage honours the cancellation.
func (r *JobRunner) Cancel(id string) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Running reports whether a job is still executing.
func (r *JobRunner) Running(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cancels[id]
	return ok
}

// Wait blocks until every submitted job has finished.
func (r *JobRunner) Wait() {
	r.wg.Wait()
}

// Shutdown cancels all running jobs and waits for them until ctx expires.
func (r *JobRunner) Shutdown(ctx context.Context) error {
	r.stop()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
