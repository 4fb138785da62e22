package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/config"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/handler"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/middleware"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/pkg/logger"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/service"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required to serve the API")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	runner := service.NewJobRunner(a.orch, service.NewJobStore(cfg.Pipeline.MaxJobs), a.mirror())

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      newRouter(cfg, a, runner),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "server forced to shutdown", "error", err)
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "jobs did not stop in time", "error", err)
		return err
	}

	logger.Info(shutdownCtx, "server exited gracefully")
	return nil
}

func newRouter(cfg *config.Config, a *app, runner *service.JobRunner) *gin.Engine {
	var objects handler.ObjectStore
	if a.minio != nil {
		objects = a.minio
	}

	authHandler := handler.NewAuthHandler(cfg)
	docHandler := handler.NewDocumentHandler(runner, cfg.Paths.RawDir)
	jobHandler := handler.NewJobHandler(runner, objects)
	latestHandler := handler.NewLatestHandler(a.orch, runner.Jobs())

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware())
	router.Use(cacheMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.POST("/documents", middleware.RateLimit(cfg.RateLimit), docHandler.Upload)

		protected.GET("/jobs", jobHandler.List)
		protected.GET("/jobs/:id", jobHandler.Get)
		protected.GET("/jobs/:id/status", jobHandler.GetStatus)
		protected.POST("/jobs/:id/cancel", jobHandler.Cancel)
		protected.DELETE("/jobs/:id", jobHandler.Delete)
		protected.GET("/jobs/:id/risk", jobHandler.Risk)
		protected.GET("/jobs/:id/report", jobHandler.Report)
		protected.GET("/jobs/:id/artifacts", jobHandler.Artifacts)
		protected.GET("/jobs/:id/artifacts/:name", jobHandler.Download)

		protected.GET("/latest/risk", latestHandler.Risk)
		protected.GET("/latest/report", latestHandler.Report)
		protected.GET("/latest/artifacts", latestHandler.Artifacts)
		protected.GET("/latest/artifacts/:name", latestHandler.Download)
	}

	return router
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After, Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// cacheMiddleware keeps API responses out of caches; job state and
// artifacts change underneath the same URLs.
func cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}
		c.Next()
	}
}
