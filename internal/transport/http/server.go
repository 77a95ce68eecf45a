// Package http provides the HTTP server for the trace service.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/epilog-dev/epilog/internal/service"
	v1 "github.com/epilog-dev/epilog/internal/transport/http/v1"
)

// NewServer creates and configures the trace service HTTP server.
// It serves the trace ingestion/query API, the live event streams,
// and the diagnosis endpoints.
func NewServer(svc *service.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	v1Handler := v1.NewHandler(svc)

	// Register Routes
	v1Handler.RegisterRoutes(e)

	return e
}
