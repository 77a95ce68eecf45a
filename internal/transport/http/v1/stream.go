package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/epilog-dev/epilog/internal/domain"
	"github.com/epilog-dev/epilog/internal/store"
)

const (
	streamPollInterval = 100 * time.Millisecond
	streamMaxDuration  = 5 * time.Minute
	streamBatchLimit   = 100
)

// StreamSessionEvents streams a session's events via SSE.
// GET /api/v1/traces/sessions/:session_id/events/stream
//
// The stream polls the store by last seen event id and pushes every new
// event until the session reaches a terminal status or the client goes away.
// Screenshot binaries are never inlined; clients fetch them separately.
func (h *Handler) StreamSessionEvents(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	// Validate session exists
	if _, err := h.service.GetSession(ctx, sessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	// Set SSE headers
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	if flusher, ok := c.Response().Writer.(http.Flusher); ok {
		flusher.Flush()
	}

	lastID := int64(0)
	if v := c.QueryParam("after_id"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			lastID = n
		}
	}

	deadline := time.Now().Add(streamMaxDuration)
	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Client disconnected
			return nil

		case <-ticker.C:
			if time.Now().After(deadline) {
				log.Info().Str("session_id", sessionID).Msg("event stream exceeded max duration")
				return nil
			}

			events, err := h.service.EventsAfter(ctx, sessionID, lastID, streamBatchLimit)
			if err != nil {
				log.Error().Err(err).Str("session_id", sessionID).Msg("failed to poll events")
				continue
			}

			for i := range events {
				if err := h.sendSSEEvent(c, &events[i]); err != nil {
					log.Error().Err(err).Msg("failed to send SSE event")
					return err
				}
				lastID = events[i].ID
			}

			// Stop once the session is terminal and fully drained.
			session, err := h.service.GetSession(ctx, sessionID)
			if err != nil {
				log.Error().Err(err).Str("session_id", sessionID).Msg("failed to get session status")
				continue
			}
			if session.Status != domain.SessionStatusRunning && len(events) == 0 {
				log.Info().Str("session_id", sessionID).Str("status", string(session.Status)).
					Msg("session reached terminal state, closing stream")
				return nil
			}
		}
	}
}

// sendSSEEvent writes a single event in SSE wire format.
func (h *Handler) sendSSEEvent(c echo.Context, event *domain.TraceEvent) error {
	data, err := json.Marshal(domain.NewStreamEvent(event))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := fmt.Fprintf(c.Response().Writer, "event: %s\n", event.EventType); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response().Writer, "data: %s\n\n", data); err != nil {
		return err
	}

	if flusher, ok := c.Response().Writer.(http.Flusher); ok {
		flusher.Flush()
	}

	return nil
}
