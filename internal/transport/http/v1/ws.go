package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/epilog-dev/epilog/internal/domain"
	"github.com/epilog-dev/epilog/internal/store"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WatchSessionEvents streams a session's events over WebSocket.
// GET /api/v1/traces/sessions/:session_id/events/ws
//
// Same contract as the SSE stream: the store is polled by last seen id and
// each new event is pushed as one JSON message.
func (h *Handler) WatchSessionEvents(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	if _, err := h.service.GetSession(ctx, sessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade websocket")
		return err
	}
	defer ws.Close()

	// Read pump: the client sends nothing meaningful, but reading detects
	// disconnects and answers control frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	lastID := int64(0)
	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			return nil

		case <-ticker.C:
			events, err := h.service.EventsAfter(ctx, sessionID, lastID, streamBatchLimit)
			if err != nil {
				log.Error().Err(err).Str("session_id", sessionID).Msg("failed to poll events")
				continue
			}

			for i := range events {
				ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := ws.WriteJSON(domain.NewStreamEvent(&events[i])); err != nil {
					log.Debug().Err(err).Str("session_id", sessionID).Msg("websocket write failed, closing")
					return nil
				}
				lastID = events[i].ID
			}

			session, err := h.service.GetSession(ctx, sessionID)
			if err != nil {
				log.Error().Err(err).Str("session_id", sessionID).Msg("failed to get session status")
				continue
			}
			if session.Status != domain.SessionStatusRunning && len(events) == 0 {
				ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				return nil
			}
		}
	}
}
