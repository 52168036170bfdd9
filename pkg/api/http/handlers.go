package http

import (
	"net/http"
	"time"

	"github.com/aescanero/skillstream/internal/application/realtime"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// handleHealth reports process health and the stream state
func (s *Server) handleHealth(c *gin.Context) {
	status := s.stream.Status()

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": gin.H{
			"stream":      status.State,
			"stream_open": status.State == realtime.StateOpen,
		},
	})
}

// handleStreamStatus returns the realtime client snapshot
func (s *Server) handleStreamStatus(c *gin.Context) {
	status := s.stream.Status()

	c.JSON(http.StatusOK, gin.H{
		"stream":      status,
		"max_backoff": realtime.MaxBackoff().String(),
	})
}

// handleListNotifications returns the visible notifications
func (s *Server) handleListNotifications(c *gin.Context) {
	list := s.notifications.List()

	c.JSON(http.StatusOK, gin.H{
		"notifications": list,
		"total":         len(list),
	})
}

// handleDismissNotification dismisses one notification
func (s *Server) handleDismissNotification(c *gin.Context) {
	id := c.Param("id")

	if !s.notifications.Dismiss(id) {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "Notification not found")
		return
	}

	c.Status(http.StatusNoContent)
}

// handleListUploads returns the cached recent uploads
func (s *Server) handleListUploads(c *gin.Context) {
	uploads, err := s.uploads.Recent(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to load recent uploads", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "UPLOADS_UNAVAILABLE", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uploads": uploads,
		"total":   len(uploads),
	})
}

// handleRefreshUploads schedules a refresh, or runs it inline with ?wait=true
func (s *Server) handleRefreshUploads(c *gin.Context) {
	if c.Query("wait") != "true" {
		s.uploads.LoadRecentUploads()
		c.JSON(http.StatusAccepted, gin.H{"status": "scheduled"})
		return
	}

	uploads, err := s.uploads.Refresh(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to refresh recent uploads", zap.Error(err))
		abortWithError(c, http.StatusBadGateway, "REFRESH_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uploads": uploads,
		"total":   len(uploads),
	})
}
