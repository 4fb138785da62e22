package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/service"
	"github.com/gin-gonic/gin"
)

type insertedClause struct {
	Text    string `json:"text"`
	Preview string `json:"preview"`
}

func respondRisk(c *gin.Context, store *service.ArtifactStore, scope string) {
	clauses, artifact, err := service.LoadClauses(store, scope)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"artifact": artifact.Name,
		"summary":  service.Summarize(clauses),
		"clauses":  service.ClauseViews(clauses),
	})
}

func respondReport(c *gin.Context, store *service.ArtifactStore, scope string) {
	report, artifact, err := service.LoadReport(store, scope)
	if err != nil {
		respondError(c, err)
		return
	}
	// The score needs the clause risks; without them every clause is unclassified.
	clauses, _, err := service.LoadClauses(store, scope)
	if err != nil && !errors.Is(err, service.ErrNotFound) {
		respondError(c, err)
		return
	}

	inserted := make([]insertedClause, len(report.InsertedClauses))
	for i, text := range report.InsertedClauses {
		inserted[i] = insertedClause{Text: text, Preview: service.InsertedPreview(text)}
	}

	c.JSON(http.StatusOK, gin.H{
		"artifact":         artifact.Name,
		"summary":          service.ReadReport(report, clauses),
		"amended_clauses":  report.AmendedClauses,
		"inserted_clauses": inserted,
	})
}

func serveArtifact(c *gin.Context, store *service.ArtifactStore, scope, name string) {
	a, err := store.Find(scope, name)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Artifact not found"})
			return
		}
		respondError(c, err)
		return
	}
	f, err := store.Open(a)
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	c.DataFromReader(http.StatusOK, a.Size, a.Kind.ContentType(), f, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", a.Name),
	})
}
