package domain

import (
	"encoding/json"
	"time"
)

// Session represents one agent execution grouping runs and events.
type Session struct {
	SessionID  string          `json:"id"`
	Name       string          `json:"name,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	EndedAt    *time.Time      `json:"ended_at,omitempty"`
	Status     SessionStatus   `json:"status"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	EventCount int             `json:"event_count"`
}

// TraceEvent represents a single trace event within a session.
//
// The ID is assigned by the store on insertion and increases monotonically;
// it is used as a proxy for causal/temporal order inside a session.
type TraceEvent struct {
	ID          int64           `json:"id"`
	SessionID   string          `json:"session_id"`
	RunID       string          `json:"run_id"`
	ParentRunID string          `json:"parent_run_id,omitempty"`
	EventType   EventType       `json:"event_type"`
	Timestamp   time.Time       `json:"timestamp"`
	EventData   json.RawMessage `json:"event_data,omitempty"`
	Screenshot  []byte          `json:"-"`
}

// HasScreenshot reports whether the event carries a visual artifact.
func (e *TraceEvent) HasScreenshot() bool {
	return len(e.Screenshot) > 0
}

// SourceFileHint extracts the originating source path from the event payload,
// looking at event_data.metadata.source_file. Empty when absent.
func (e *TraceEvent) SourceFileHint() string {
	if len(e.EventData) == 0 {
		return ""
	}
	var data struct {
		Metadata struct {
			SourceFile string `json:"source_file"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(e.EventData, &data); err != nil {
		return ""
	}
	return data.Metadata.SourceFile
}
