package v1

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/epilog-dev/epilog/internal/domain"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func TestCreateEvent(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t)

	session := createTestSession(t, e, handler)

	t.Run("Valid Event", func(t *testing.T) {
		rec := postEvent(t, e, handler, domain.CreateEventRequest{
			SessionID: session.SessionID,
			RunID:     "r1",
			EventType: "tool_start",
			Timestamp: time.Now().UTC(),
			EventData: json.RawMessage(`{"tool":"browser.click"}`),
		})
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp domain.EventResponse
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.NotZero(t, resp.ID)
		assert.Equal(t, session.SessionID, resp.SessionID)
		assert.Equal(t, domain.EventTypeToolStart, resp.EventType)
		assert.False(t, resp.HasScreenshot)
	})

	t.Run("Event With Screenshot", func(t *testing.T) {
		rec := postEvent(t, e, handler, domain.CreateEventRequest{
			SessionID:        session.SessionID,
			RunID:            "r1",
			EventType:        "tool_end",
			EventData:        json.RawMessage(`{}`),
			ScreenshotBase64: base64.StdEncoding.EncodeToString(pngMagic),
		})
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp domain.EventResponse
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.True(t, resp.HasScreenshot)
	})

	t.Run("Invalid Event Type", func(t *testing.T) {
		rec := postEvent(t, e, handler, domain.CreateEventRequest{
			SessionID: session.SessionID,
			RunID:     "r1",
			EventType: "teleport",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Unknown Session", func(t *testing.T) {
		rec := postEvent(t, e, handler, domain.CreateEventRequest{
			SessionID: "nonexistent",
			RunID:     "r1",
			EventType: "tool_start",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Invalid Screenshot Encoding", func(t *testing.T) {
		rec := postEvent(t, e, handler, domain.CreateEventRequest{
			SessionID:        session.SessionID,
			RunID:            "r1",
			EventType:        "tool_end",
			ScreenshotBase64: "not-base64!!!",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetSessionEvents(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t)

	session := createTestSession(t, e, handler)
	for _, et := range []string{"chain_start", "tool_start", "tool_end", "chain_end"} {
		rec := postEvent(t, e, handler, domain.CreateEventRequest{
			SessionID: session.SessionID,
			RunID:     "r1",
			EventType: et,
			EventData: json.RawMessage(`{}`),
		})
		assert.Equal(t, http.StatusCreated, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/traces/sessions/:session_id/events")
	c.SetParamNames("session_id")
	c.SetParamValues(session.SessionID)

	err := handler.GetSessionEvents(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp []domain.StreamEvent
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.Len(t, resp, 4)
	// Ascending insertion order
	assert.Equal(t, domain.EventTypeChainStart, resp[0].EventType)
	assert.Equal(t, domain.EventTypeChainEnd, resp[3].EventType)
	for i := 1; i < len(resp); i++ {
		assert.Greater(t, resp[i].ID, resp[i-1].ID)
	}
}

func TestGetEventScreenshot(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t)

	session := createTestSession(t, e, handler)

	rec := postEvent(t, e, handler, domain.CreateEventRequest{
		SessionID:        session.SessionID,
		RunID:            "r1",
		EventType:        "tool_end",
		ScreenshotBase64: base64.StdEncoding.EncodeToString(pngMagic),
	})
	var withShot domain.EventResponse
	json.Unmarshal(rec.Body.Bytes(), &withShot)

	rec = postEvent(t, e, handler, domain.CreateEventRequest{
		SessionID: session.SessionID,
		RunID:     "r1",
		EventType: "tool_start",
	})
	var withoutShot domain.EventResponse
	json.Unmarshal(rec.Body.Bytes(), &withoutShot)

	t.Run("Raw Bytes With Sniffed Type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/api/v1/traces/events/:event_id/screenshot")
		c.SetParamNames("event_id")
		c.SetParamValues(formatID(withShot.ID))

		err := handler.GetEventScreenshot(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t, pngMagic, rec.Body.Bytes())
	})

	t.Run("No Screenshot", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/api/v1/traces/events/:event_id/screenshot")
		c.SetParamNames("event_id")
		c.SetParamValues(formatID(withoutShot.ID))

		err := handler.GetEventScreenshot(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Invalid ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/api/v1/traces/events/:event_id/screenshot")
		c.SetParamNames("event_id")
		c.SetParamValues("abc")

		err := handler.GetEventScreenshot(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// postEvent submits one event through the handler.
func postEvent(t *testing.T, e *echo.Echo, handler *Handler, event domain.CreateEventRequest) *httptest.ResponseRecorder {
	t.Helper()

	reqBody, _ := json.Marshal(event)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/traces/events", bytes.NewReader(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.CreateEvent(c); err != nil {
		t.Fatalf("create event: %v", err)
	}
	return rec
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
