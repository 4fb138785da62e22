package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/config"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/middleware"
	"github.com/gin-gonic/gin"
)

func testAuthConfig() *config.Config {
	return &config.Config{
		Auth:      config.AuthConfig{JWTSecret: "test-secret", TokenExpireHours: 24},
		RateLimit: config.RateLimitConfig{UploadsPerMinute: 10, Burst: 3},
		Users: []config.User{
			{Username: "analyst", Password: "s3cret", Tenant: "acme"},
			{Username: "solo", Password: "pw"},
		},
	}
}

func postLogin(h *AuthHandler, body string) *httptest.ResponseRecorder {
	router := gin.New()
	router.POST("/login", h.Login)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginStatus(t *testing.T) {
	h := NewAuthHandler(testAuthConfig())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"username":"analyst","password":"s3cret"}`, http.StatusOK},
		{"unknown user", `{"username":"nobody","password":"s3cret"}`, http.StatusUnauthorized},
		{"wrong password", `{"username":"analyst","password":"s3cre"}`, http.StatusUnauthorized},
		{"empty password", `{"username":"analyst","password":""}`, http.StatusBadRequest},
		{"missing password", `{"username":"analyst"}`, http.StatusBadRequest},
		{"not json", `username=analyst`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postLogin(h, tt.body)
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestLoginIssuesTenantToken(t *testing.T) {
	cfg := testAuthConfig()
	w := postLogin(NewAuthHandler(cfg), `{"username":"analyst","password":"s3cret"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var s Session
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if s.TokenType != "Bearer" {
		t.Errorf("Expected token type Bearer, got %s", s.TokenType)
	}
	if s.ExpiresIn <= 23*3600 || s.ExpiresIn > 24*3600 {
		t.Errorf("Expected expires_in close to 24h, got %d", s.ExpiresIn)
	}

	claims, err := middleware.ParseToken(s.Token, &cfg.Auth)
	if err != nil {
		t.Fatalf("Issued token does not validate: %v", err)
	}
	if claims.Username != "analyst" || claims.Tenant != "acme" {
		t.Errorf("Expected analyst@acme, got %s@%s", claims.Username, claims.Tenant)
	}
}

func TestLoginDefaultTenant(t *testing.T) {
	w := postLogin(NewAuthHandler(testAuthConfig()), `{"username":"solo","password":"pw"}`)

	var s Session
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if s.Tenant != defaultTenant {
		t.Errorf("Expected tenant %q, got %q", defaultTenant, s.Tenant)
	}
}

func TestGetCurrentUser(t *testing.T) {
	h := NewAuthHandler(testAuthConfig())

	router := gin.New()
	router.GET("/me", func(c *gin.Context) {
		c.Set("username", "analyst")
		c.Set("tenant", "acme")
		h.GetCurrentUser(c)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Username string       `json:"username"`
		Tenant   string       `json:"tenant"`
		Limits   UploadLimits `json:"limits"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Username != "analyst" || resp.Tenant != "acme" {
		t.Errorf("Expected analyst@acme, got %s@%s", resp.Username, resp.Tenant)
	}
	want := UploadLimits{PerMinute: 10, Burst: 3, MaxBytes: MaxUploadBytes}
	if resp.Limits != want {
		t.Errorf("Expected limits %+v, got %+v", want, resp.Limits)
	}
}
