// Package domain defines the core domain models for the trace service.
package domain

// SessionStatus represents the status of a trace session.
type SessionStatus string

const (
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
)

// EventType represents the type of a trace event.
type EventType string

const (
	EventTypeChainStart  EventType = "chain_start"
	EventTypeChainEnd    EventType = "chain_end"
	EventTypeChainError  EventType = "chain_error"
	EventTypeToolStart   EventType = "tool_start"
	EventTypeToolEnd     EventType = "tool_end"
	EventTypeToolError   EventType = "tool_error"
	EventTypeLLMStart    EventType = "llm_start"
	EventTypeLLMEnd      EventType = "llm_end"
	EventTypeAgentAction EventType = "agent_action"
	EventTypeAgentFinish EventType = "agent_finish"
)

// eventTypes is the closed vocabulary of accepted event types.
var eventTypes = map[EventType]struct{}{
	EventTypeChainStart:  {},
	EventTypeChainEnd:    {},
	EventTypeChainError:  {},
	EventTypeToolStart:   {},
	EventTypeToolEnd:     {},
	EventTypeToolError:   {},
	EventTypeLLMStart:    {},
	EventTypeLLMEnd:      {},
	EventTypeAgentAction: {},
	EventTypeAgentFinish: {},
}

// ValidEventType reports whether t is part of the fixed event vocabulary.
func ValidEventType(t EventType) bool {
	_, ok := eventTypes[t]
	return ok
}

// Importance tags how significant an event payload is for diagnosis.
type Importance string

const (
	ImportanceMedium   Importance = "medium"
	ImportanceHigh     Importance = "high"
	ImportanceCritical Importance = "critical"
)
