// Package v1 provides HTTP handlers for the trace API.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/epilog-dev/epilog/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the trace API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/traces")

	// Session lifecycle
	g.POST("/sessions", h.CreateSession)
	g.GET("/sessions", h.ListSessions)
	g.GET("/sessions/:session_id", h.GetSession)
	g.POST("/sessions/:session_id/end", h.EndSession)

	// Event ingestion and retrieval
	g.POST("/events", h.CreateEvent)
	g.GET("/sessions/:session_id/events", h.GetSessionEvents)
	g.GET("/events/:event_id/screenshot", h.GetEventScreenshot)

	// Live streams
	g.GET("/sessions/:session_id/events/stream", h.StreamSessionEvents)
	g.GET("/sessions/:session_id/events/ws", h.WatchSessionEvents)

	// Diagnosis
	g.POST("/events/:event_id/diagnose", h.DiagnoseEvent)
	g.POST("/apply-patch", h.ApplyPatch)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
