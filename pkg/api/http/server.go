package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/skillstream/internal/application/realtime"
	"github.com/aescanero/skillstream/pkg/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// StreamStatus reports the realtime client status
type StreamStatus interface {
	Status() realtime.Status
}

// Notifications lists and dismisses visible notifications
type Notifications interface {
	List() []domain.Notification
	Dismiss(id string) bool
}

// Uploads serves and refreshes the recent uploads list
type Uploads interface {
	Recent(ctx context.Context) ([]domain.Upload, error)
	Refresh(ctx context.Context) ([]domain.Upload, error)
	LoadRecentUploads()
}

// Server represents the HTTP API server
type Server struct {
	router        *gin.Engine
	server        *http.Server
	stream        StreamStatus
	notifications Notifications
	uploads       Uploads
	logger        *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Addr           string
	Stream         StreamStatus
	Notifications  Notifications
	Uploads        Uploads
	MetricsHandler http.Handler
	Logger         *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(cfg.Logger))
	router.Use(corsMiddleware())

	s := &Server{
		router:        router,
		stream:        cfg.Stream,
		notifications: cfg.Notifications,
		uploads:       cfg.Uploads,
		logger:        cfg.Logger,
	}

	metrics := cfg.MetricsHandler
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	s.setupRoutes(metrics)

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures API routes
func (s *Server) setupRoutes(metrics http.Handler) {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(metrics))

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/stream", s.handleStreamStatus)

		v1.GET("/notifications", s.handleListNotifications)
		v1.DELETE("/notifications/:id", s.handleDismissNotification)

		v1.GET("/uploads", s.handleListUploads)
		v1.POST("/uploads/refresh", s.handleRefreshUploads)
	}
}

// SetupWebSocket adds the notification push endpoint
func (s *Server) SetupWebSocket(handler interface {
	HandleNotifications(*gin.Context)
}) {
	s.router.GET("/api/v1/notifications/ws", handler.HandleNotifications)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}

// requestLogger is a middleware for request logging
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		duration := time.Since(start)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()))
	}
}
