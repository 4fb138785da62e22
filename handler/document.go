package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/middleware"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/pkg/logger"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MaxUploadBytes caps a single uploaded document.
const MaxUploadBytes = 50 << 20

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
	".md":   true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename keeps the base name of an upload and replaces anything
// that could escape the raw directory or confuse artifact naming.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" || name == "_" {
		return "document"
	}
	return name
}

type DocumentHandler struct {
	runner *service.JobRunner
	rawDir string
}

func NewDocumentHandler(runner *service.JobRunner, rawDir string) *DocumentHandler {
	return &DocumentHandler{runner: runner, rawDir: rawDir}
}

// Upload stores the document in the raw directory and starts a pipeline job.
func (h *DocumentHandler) Upload(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	ctx := c.Request.Context()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	filename := sanitizeFilename(header.Filename)
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF, DOCX, TXT and MD files are allowed"})
		return
	}
	if header.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Uploaded file is empty"})
		return
	}

	if err := os.MkdirAll(h.rawDir, 0o755); err != nil {
		respondError(c, err)
		return
	}
	// Uploads of the same name must not overwrite each other while queued.
	dst := filepath.Join(h.rawDir, uuid.New().String()[:8]+"_"+filename)
	if err := c.SaveUploadedFile(header, dst); err != nil {
		respondError(c, err)
		return
	}

	job, err := h.runner.Submit(ctx, tenant, filename, dst)
	if err != nil {
		os.Remove(dst)
		respondError(c, err)
		return
	}

	logger.Info(ctx, "document uploaded", "job_id", job.ID, "filename", filename, "bytes", header.Size)
	c.JSON(http.StatusAccepted, job)
}
