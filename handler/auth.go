package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/config"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/middleware"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/pkg/logger"
	"github.com/gin-gonic/gin"
)

// defaultTenant owns the jobs of users configured without a tenant.
const defaultTenant = "default"

type AuthHandler struct {
	users     func(string) *config.User
	auth      config.AuthConfig
	rateLimit config.RateLimitConfig
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{users: cfg.FindUser, auth: cfg.Auth, rateLimit: cfg.RateLimit}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Session is the token issued on login.
type Session struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresAt string `json:"expires_at"`
	ExpiresIn int64  `json:"expires_in"`
	Username  string `json:"username"`
	Tenant    string `json:"tenant"`
}

// UploadLimits tells clients how fast they may submit documents.
type UploadLimits struct {
	PerMinute int   `json:"uploads_per_minute"`
	Burst     int   `json:"burst"`
	MaxBytes  int64 `json:"max_upload_bytes"`
}

// authenticate returns the configured user matching the credentials.
func (h *AuthHandler) authenticate(req *LoginRequest) *config.User {
	user := h.users(req.Username)
	if user == nil {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(req.Password)) != 1 {
		return nil
	}
	return user
}

// Login exchanges configured credentials for a bearer token scoped to the
// user's tenant.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user := h.authenticate(&req)
	if user == nil {
		logger.Warn(ctx, "login rejected", "username", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	tenant := user.Tenant
	if tenant == "" {
		tenant = defaultTenant
	}
	token, expiresAt, err := middleware.GenerateToken(user.Username, tenant, &h.auth)
	if err != nil {
		logger.Error(ctx, "failed to sign token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	logger.Info(ctx, "session issued", "username", user.Username, "tenant", tenant)
	c.JSON(http.StatusOK, Session{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt.Format(time.RFC3339),
		ExpiresIn: int64(time.Until(expiresAt).Seconds()),
		Username:  user.Username,
		Tenant:    tenant,
	})
}

// GetCurrentUser returns the caller's identity and upload limits.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"username": middleware.GetUsername(c),
		"tenant":   middleware.GetTenant(c),
		"limits": UploadLimits{
			PerMinute: h.rateLimit.UploadsPerMinute,
			Burst:     h.rateLimit.Burst,
			MaxBytes:  MaxUploadBytes,
		},
	})
}
