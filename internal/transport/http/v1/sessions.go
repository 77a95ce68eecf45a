package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/epilog-dev/epilog/internal/domain"
	"github.com/epilog-dev/epilog/internal/store"
)

// CreateSession creates a new trace session.
func (h *Handler) CreateSession(c echo.Context) error {
	var req domain.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	ctx := c.Request().Context()

	session, err := h.service.CreateSession(ctx, &req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, session)
}

// ListSessions lists trace sessions, newest first.
func (h *Handler) ListSessions(c echo.Context) error {
	skip, limit := pageParams(c, 100)
	ctx := c.Request().Context()

	sessions, err := h.service.ListSessions(ctx, skip, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, sessions)
}

// GetSession retrieves a single session by id.
func (h *Handler) GetSession(c echo.Context) error {
	sessionID := c.Param("session_id")
	ctx := c.Request().Context()

	session, err := h.service.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, session)
}

// endSessionRequest is the request body for closing a session.
type endSessionRequest struct {
	Status string `json:"status,omitempty"`
}

// EndSession marks a session as completed or failed and stamps ended_at.
func (h *Handler) EndSession(c echo.Context) error {
	sessionID := c.Param("session_id")
	var req endSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	ctx := c.Request().Context()

	session, err := h.service.EndSession(ctx, sessionID, domain.SessionStatus(req.Status))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, session)
}

// pageParams parses skip/limit query params with a default page size.
func pageParams(c echo.Context, defaultLimit int) (int, int) {
	skip := 0
	limit := defaultLimit
	if v := c.QueryParam("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			skip = n
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return skip, limit
}
