package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/config"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testAuthConfig = &config.AuthConfig{
	JWTSecret:        "test-secret-key",
	TokenExpireHours: 24,
}

func TestGenerateToken(t *testing.T) {
	token, expiresAt, err := GenerateToken("testuser", "testtenant", testAuthConfig)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if token == "" {
		t.Error("Expected non-empty token")
	}

	expectedExpiry := time.Now().Add(24 * time.Hour)
	if expiresAt.Before(expectedExpiry.Add(-time.Minute)) || expiresAt.After(expectedExpiry.Add(time.Minute)) {
		t.Errorf("Expiry time %v is not within expected range of %v", expiresAt, expectedExpiry)
	}

	claims, err := ParseToken(token, testAuthConfig)
	if err != nil {
		t.Fatalf("Failed to parse token: %v", err)
	}
	if claims.Username != "testuser" || claims.Tenant != "testtenant" {
		t.Errorf("Unexpected claims %+v", claims)
	}
}

func TestAuthMiddleware(t *testing.T) {
	token, _, err := GenerateToken("testuser", "testtenant", testAuthConfig)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	tests := []struct {
		name           string
		method         string
		target         string
		authHeader     string
		expectedStatus int
	}{
		{"valid token", "GET", "/test", "Bearer " + token, http.StatusOK},
		{"missing header", "GET", "/test", "", http.StatusUnauthorized},
		{"invalid format", "GET", "/test", token, http.StatusUnauthorized},
		{"empty bearer", "GET", "/test", "Bearer ", http.StatusUnauthorized},
		{"invalid token", "GET", "/test", "Bearer invalid.token.here", http.StatusUnauthorized},
		{"query token on download", "GET", "/test?token=" + token, "", http.StatusOK},
		{"query token on upload", "POST", "/test?token=" + token, "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(AuthMiddleware(testAuthConfig))
			ok := func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "ok"})
			}
			router.GET("/test", ok)
			router.POST("/test", ok)

			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: "testuser",
		Tenant:   "testtenant",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	})
	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Username: "testuser"})
	wrongAlg := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Username:         "testuser",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})

	tokens := map[string]*jwt.Token{"expired": expired, "no expiry": noExpiry, "wrong algorithm": wrongAlg}
	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			tokenString, _ := token.SignedString([]byte(testAuthConfig.JWTSecret))

			router := gin.New()
			router.Use(AuthMiddleware(testAuthConfig))
			router.GET("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "ok"})
			})

			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", "Bearer "+tokenString)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
			}
		})
	}
}

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	token, _, _ := GenerateToken("alice", "acme", testAuthConfig)

	var username, tenant, ctxTenantValue string
	router := gin.New()
	router.Use(AuthMiddleware(testAuthConfig))
	router.GET("/test", func(c *gin.Context) {
		username = GetUsername(c)
		tenant = GetTenant(c)
		ctxTenantValue, _ = c.Request.Context().Value(logger.TenantKey).(string)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(httptest.NewRecorder(), req)

	if username != "alice" {
		t.Errorf("Expected username alice, got %q", username)
	}
	if tenant != "acme" {
		t.Errorf("Expected tenant acme, got %q", tenant)
	}
	if ctxTenantValue != "acme" {
		t.Errorf("Expected tenant on request context, got %q", ctxTenantValue)
	}
}

func TestGetUsernameAndTenantUnset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if GetUsername(c) != "" {
		t.Error("Expected empty string for unset username")
	}
	if GetTenant(c) != "" {
		t.Error("Expected empty string for unset tenant")
	}
}
