package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/middleware"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/pkg/logger"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/service"
	"github.com/gin-gonic/gin"
)

// ObjectStore is the mirrored copy of job artifacts, when one is configured.
type ObjectStore interface {
	ArtifactURL(ctx context.Context, job *model.Job, name string) (string, error)
	RemoveJob(ctx context.Context, job *model.Job) error
}

type JobHandler struct {
	runner  *service.JobRunner
	objects ObjectStore
}

// NewJobHandler builds the job endpoints. objects may be nil.
func NewJobHandler(runner *service.JobRunner, objects ObjectStore) *JobHandler {
	return &JobHandler{runner: runner, objects: objects}
}

// job loads the :id job of the caller's tenant, answering 404 otherwise.
func (h *JobHandler) job(c *gin.Context) (*model.Job, bool) {
	job := h.runner.Jobs().Get(c.Param("id"))
	if job == nil || job.Tenant != middleware.GetTenant(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return nil, false
	}
	return job, true
}

func (h *JobHandler) scope(job *model.Job) string {
	return h.runner.Orchestrator().Scope(job)
}

func (h *JobHandler) store() *service.ArtifactStore {
	return h.runner.Orchestrator().Store()
}

// List returns the tenant's jobs, newest first.
func (h *JobHandler) List(c *gin.Context) {
	jobs := h.runner.Jobs().GetByTenant(middleware.GetTenant(c))
	if jobs == nil {
		jobs = []*model.Job{}
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *JobHandler) Get(c *gin.Context) {
	job, ok := h.job(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, job)
}

// GetStatus is the polling endpoint for a running job.
func (h *JobHandler) GetStatus(c *gin.Context) {
	job, ok := h.job(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           job.ID,
		"status":       job.Status,
		"progress":     job.Progress,
		"phase":        job.Phase,
		"failed_stage": job.FailedStage,
		"error_msg":    job.ErrorMsg,
	})
}

func (h *JobHandler) Cancel(c *gin.Context) {
	job, ok := h.job(c)
	if !ok {
		return
	}
	if !h.runner.Cancel(job.ID) {
		c.JSON(http.StatusConflict, gin.H{"error": "Job is not running", "status": job.Status})
		return
	}
	logger.Info(c.Request.Context(), "job cancel requested", "job_id", job.ID)
	c.JSON(http.StatusAccepted, gin.H{"message": "Cancellation requested"})
}

// Delete removes a finished job together with its artifacts and source document.
func (h *JobHandler) Delete(c *gin.Context) {
	job, ok := h.job(c)
	if !ok {
		return
	}
	if h.runner.Running(job.ID) {
		c.JSON(http.StatusConflict, gin.H{"error": "Job is still running; cancel it first"})
		return
	}

	ctx := c.Request.Context()
	if scope := h.scope(job); scope != "" {
		if err := h.store().RemoveScope(scope); err != nil {
			respondError(c, err)
			return
		}
	}
	if h.objects != nil {
		if err := h.objects.RemoveJob(ctx, job); err != nil {
			logger.Warn(ctx, "failed to remove mirrored objects", "job_id", job.ID, "error", err)
		}
	}
	if job.SourcePath != "" {
		if err := os.Remove(job.SourcePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn(ctx, "failed to remove source document", "job_id", job.ID, "error", err)
		}
	}
	h.runner.Jobs().Delete(job.ID)

	c.JSON(http.StatusOK, gin.H{"message": "Job deleted"})
}

func (h *JobHandler) Risk(c *gin.Context) {
	job, ok := h.job(c)
	if !ok {
		return
	}
	respondRisk(c, h.store(), h.scope(job))
}

func (h *JobHandler) Report(c *gin.Context) {
	job, ok := h.job(c)
	if !ok {
		return
	}
	respondReport(c, h.store(), h.scope(job))
}

// Artifacts lists every artifact of the job plus the export view. Mirrored
// artifacts carry a presigned download URL.
func (h *JobHandler) Artifacts(c *gin.Context) {
	job, ok := h.job(c)
	if !ok {
		return
	}
	scope := h.scope(job)

	all, err := h.store().List(scope, model.KindAny)
	if err != nil {
		respondError(c, err)
		return
	}
	exports, err := service.RecentExports(h.store(), scope)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]gin.H, len(all))
	for i, a := range all {
		item := gin.H{
			"name":         a.Name,
			"kind":         a.Kind,
			"size":         a.Size,
			"modified_at":  a.ModTime,
			"download_url": fmt.Sprintf("/api/jobs/%s/artifacts/%s", job.ID, a.Name),
		}
		if h.objects != nil && job.Status == model.StatusCompleted && job.MirrorError == "" {
			if url, err := h.objects.ArtifactURL(c.Request.Context(), job, a.Name); err == nil {
				item["object_url"] = url
			}
		}
		items[i] = item
	}

	c.JSON(http.StatusOK, gin.H{"artifacts": items, "exports": exports})
}

// Download streams one artifact of the job.
func (h *JobHandler) Download(c *gin.Context) {
	job, ok := h.job(c)
	if !ok {
		return
	}
	serveArtifact(c, h.store(), h.scope(job), c.Param("name"))
}
