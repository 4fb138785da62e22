package handler

import (
	"errors"
	"net/http"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/pkg/logger"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/service"
	"github.com/gin-gonic/gin"
)

// respondError maps pipeline and store errors to HTTP responses. A missing
// artifact is the normal "analysis not yet run" state, not a failure.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "analysis not yet run"})
	default:
		logger.Error(c.Request.Context(), "request failed", "error", err)
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read analysis results"})
	}
}
