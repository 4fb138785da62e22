package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/pkg/logger"
	"github.com/gin-gonic/gin"
)

func newRequestIDRouter(seen *string) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		*seen, _ = c.Request.Context().Value(logger.RequestIDKey).(string)
		c.JSON(http.StatusOK, gin.H{"request_id": GetRequestID(c)})
	})
	return router
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	router := newRequestIDRouter(&seen)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	responseID := w.Header().Get(RequestIDHeader)
	if responseID == "" {
		t.Error("Expected X-Request-ID header to be set")
	}
	if seen != responseID {
		t.Errorf("Expected request context to carry %q, got %q", responseID, seen)
	}
}

func TestRequestIDMiddlewareWithExistingID(t *testing.T) {
	var seen string
	router := newRequestIDRouter(&seen)

	existingID := "existing-request-id-123"
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, existingID)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if responseID := w.Header().Get(RequestIDHeader); responseID != existingID {
		t.Errorf("Expected request ID '%s', got '%s'", existingID, responseID)
	}
}

func TestRequestIDMiddlewareReplacesOversizedID(t *testing.T) {
	var seen string
	router := newRequestIDRouter(&seen)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); len(got) > maxRequestIDLen {
		t.Errorf("Expected oversized ID to be replaced, got %d bytes", len(got))
	}
}

func TestGetRequestIDEmpty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if requestID := GetRequestID(c); requestID != "" {
		t.Errorf("Expected empty string, got '%s'", requestID)
	}
}
