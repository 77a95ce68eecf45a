package domain

import (
	"encoding/json"
	"time"
)

// CreateSessionRequest is the request body for creating a trace session.
type CreateSessionRequest struct {
	Name     string          `json:"name,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// CreateEventRequest is the wire envelope for ingesting a single event.
type CreateEventRequest struct {
	SessionID        string          `json:"session_id"`
	RunID            string          `json:"run_id"`
	ParentRunID      string          `json:"parent_run_id,omitempty"`
	EventType        string          `json:"event_type"`
	Timestamp        time.Time       `json:"timestamp"`
	EventData        json.RawMessage `json:"event_data"`
	ScreenshotBase64 string          `json:"screenshot_base64,omitempty"`
}

// EventResponse is the ingestion acknowledgement, carrying the assigned id.
type EventResponse struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"session_id"`
	RunID         string    `json:"run_id"`
	ParentRunID   string    `json:"parent_run_id,omitempty"`
	EventType     EventType `json:"event_type"`
	Timestamp     time.Time `json:"timestamp"`
	HasScreenshot bool      `json:"has_screenshot"`
}

// StreamEvent is one message on the live per-session push stream. The
// screenshot binary is never inlined; clients fetch it separately.
type StreamEvent struct {
	ID            int64           `json:"id"`
	SessionID     string          `json:"session_id"`
	RunID         string          `json:"run_id"`
	ParentRunID   string          `json:"parent_run_id,omitempty"`
	EventType     EventType       `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	EventData     json.RawMessage `json:"event_data,omitempty"`
	HasScreenshot bool            `json:"has_screenshot"`
}

// NewEventResponse builds the ingestion acknowledgement for a stored event.
func NewEventResponse(e *TraceEvent) EventResponse {
	return EventResponse{
		ID:            e.ID,
		SessionID:     e.SessionID,
		RunID:         e.RunID,
		ParentRunID:   e.ParentRunID,
		EventType:     e.EventType,
		Timestamp:     e.Timestamp,
		HasScreenshot: e.HasScreenshot(),
	}
}

// NewStreamEvent builds the live-stream message for a stored event.
func NewStreamEvent(e *TraceEvent) StreamEvent {
	return StreamEvent{
		ID:            e.ID,
		SessionID:     e.SessionID,
		RunID:         e.RunID,
		ParentRunID:   e.ParentRunID,
		EventType:     e.EventType,
		Timestamp:     e.Timestamp,
		EventData:     e.EventData,
		HasScreenshot: e.HasScreenshot(),
	}
}
