package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/epilog-dev/epilog/internal/domain"
	"github.com/epilog-dev/epilog/internal/service"
	"github.com/epilog-dev/epilog/internal/store"
)

// CreateEvent ingests a single trace event.
func (h *Handler) CreateEvent(c echo.Context) error {
	var req domain.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	ctx := c.Request().Context()

	event, err := h.service.IngestEvent(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEventType), errors.Is(err, service.ErrInvalidScreenshot):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, store.ErrNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}

	return c.JSON(http.StatusCreated, domain.NewEventResponse(event))
}

// GetSessionEvents returns a session's events in ascending order.
func (h *Handler) GetSessionEvents(c echo.Context) error {
	sessionID := c.Param("session_id")
	skip, limit := pageParams(c, 1000)
	ctx := c.Request().Context()

	events, err := h.service.SessionEvents(ctx, sessionID, skip, limit)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	resp := make([]domain.StreamEvent, 0, len(events))
	for i := range events {
		resp = append(resp, domain.NewStreamEvent(&events[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetEventScreenshot serves an event's screenshot as raw image bytes.
func (h *Handler) GetEventScreenshot(c echo.Context) error {
	eventID, err := eventIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid event id"})
	}

	ctx := c.Request().Context()

	data, err := h.service.EventScreenshot(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "screenshot not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.Blob(http.StatusOK, http.DetectContentType(data), data)
}

// eventIDParam parses the numeric event id path parameter.
func eventIDParam(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("event_id"), 10, 64)
}
