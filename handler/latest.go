package handler

import (
	"net/http"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/middleware"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/service"
	"github.com/gin-gonic/gin"
)

// LatestHandler serves the most recent analysis. In the flat layout that is
// the shared output directory; otherwise it is the caller's newest job with a
// compliance report.
type LatestHandler struct {
	orch *service.Orchestrator
	jobs *service.JobStore
}

func NewLatestHandler(orch *service.Orchestrator, jobs *service.JobStore) *LatestHandler {
	return &LatestHandler{orch: orch, jobs: jobs}
}

// scope resolves the caller's latest scope, answering 404 when there is none.
func (h *LatestHandler) scope(c *gin.Context) (string, bool) {
	tenant := middleware.GetTenant(c)
	scope, err := h.orch.LatestScope(func(scope string) bool {
		job := h.jobs.Get(scope)
		return job != nil && job.Tenant == tenant
	})
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return scope, true
}

func (h *LatestHandler) Risk(c *gin.Context) {
	if scope, ok := h.scope(c); ok {
		respondRisk(c, h.orch.Store(), scope)
	}
}

func (h *LatestHandler) Report(c *gin.Context) {
	if scope, ok := h.scope(c); ok {
		respondReport(c, h.orch.Store(), scope)
	}
}

// Artifacts returns the export view of the latest analysis.
func (h *LatestHandler) Artifacts(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	exports, err := service.RecentExports(h.orch.Store(), scope)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": scope, "exports": exports})
}

func (h *LatestHandler) Download(c *gin.Context) {
	if scope, ok := h.scope(c); ok {
		serveArtifact(c, h.orch.Store(), scope, c.Param("name"))
	}
}
