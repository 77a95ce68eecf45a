package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epilog-dev/epilog/internal/domain"
)

func TestStreamSessionEvents(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t)

	session := createTestSession(t, e, handler)
	for _, et := range []string{"chain_start", "tool_start", "chain_end"} {
		postEvent(t, e, handler, domain.CreateEventRequest{
			SessionID: session.SessionID,
			RunID:     "r1",
			EventType: et,
			EventData: json.RawMessage(`{"k":"v"}`),
		})
	}
	// Terminal session: the stream drains and closes on its own.
	endTestSession(t, e, handler, session.SessionID)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/traces/sessions/:session_id/events/stream")
	c.SetParamNames("session_id")
	c.SetParamValues(session.SessionID)

	err := handler.StreamSessionEvents(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))

	body := rec.Body.String()
	assert.Equal(t, 3, strings.Count(body, "data: "))
	assert.Contains(t, body, "event: chain_start\n")
	assert.Contains(t, body, "event: chain_end\n")
	assert.NotContains(t, body, "screenshot_base64")

	// Each data line decodes to a stream event with an id.
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev domain.StreamEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		assert.NotZero(t, ev.ID)
		assert.Equal(t, session.SessionID, ev.SessionID)
	}
}

func TestStreamSessionEventsNotFound(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/traces/sessions/:session_id/events/stream")
	c.SetParamNames("session_id")
	c.SetParamValues("nonexistent")

	err := handler.StreamSessionEvents(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWatchSessionEvents(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t)
	handler.RegisterRoutes(e)

	srv := httptest.NewServer(e)
	defer srv.Close()

	session := createTestSession(t, e, handler)
	for _, et := range []string{"tool_start", "tool_end"} {
		postEvent(t, e, handler, domain.CreateEventRequest{
			SessionID: session.SessionID,
			RunID:     "r1",
			EventType: et,
			EventData: json.RawMessage(`{}`),
		})
	}
	endTestSession(t, e, handler, session.SessionID)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/api/v1/traces/sessions/" + session.SessionID + "/events/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	var got []domain.StreamEvent
	for {
		var ev domain.StreamEvent
		if err := conn.ReadJSON(&ev); err != nil {
			// Normal closure after the terminal session drains.
			break
		}
		got = append(got, ev)
	}

	require.Len(t, got, 2)
	assert.Equal(t, domain.EventTypeToolStart, got[0].EventType)
	assert.Equal(t, domain.EventTypeToolEnd, got[1].EventType)
	assert.Greater(t, got[1].ID, got[0].ID)
}

// endTestSession closes a session through the handler.
func endTestSession(t *testing.T, e *echo.Echo, handler *Handler, sessionID string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"completed"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/traces/sessions/:session_id/end")
	c.SetParamNames("session_id")
	c.SetParamValues(sessionID)

	if err := handler.EndSession(c); err != nil {
		t.Fatalf("end session: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("end session: status %d", rec.Code)
	}
}
