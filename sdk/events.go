package sdk

import (
	"fmt"
	"time"
)

// DefaultMaxFieldLength bounds free-text payload fields before transmission.
const DefaultMaxFieldLength = 1000

// Event is the wire envelope for a single trace event.
type Event struct {
	SessionID        string                 `json:"session_id"`
	RunID            string                 `json:"run_id"`
	ParentRunID      string                 `json:"parent_run_id,omitempty"`
	EventType        string                 `json:"event_type"`
	Timestamp        time.Time              `json:"timestamp"`
	EventData        map[string]interface{} `json:"event_data"`
	ScreenshotBase64 string                 `json:"screenshot_base64,omitempty"`
}

// Run identifies one logical unit of agent work. A run with an empty
// ParentRunID is a root of its causal tree.
type Run struct {
	RunID       string
	ParentRunID string
}

// truncate bounds a value's string representation to max characters,
// appending a trailing marker. Deterministic: the same input always
// truncates identically.
func truncate(value interface{}, max int) string {
	s := fmt.Sprintf("%v", value)
	if max > 0 && len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func (h *Handler) newEvent(eventType string, run Run, data map[string]interface{}) *Event {
	return &Event{
		SessionID:   h.sessionID,
		RunID:       run.RunID,
		ParentRunID: run.ParentRunID,
		EventType:   eventType,
		Timestamp:   time.Now().UTC(),
		EventData:   data,
	}
}

// OnChainStart records the start of a chain invocation.
func (h *Handler) OnChainStart(run Run, name string, inputs interface{}, tags []string, metadata map[string]interface{}) {
	if name == "" {
		name = "chain"
	}
	h.enqueue(h.newEvent("chain_start", run, map[string]interface{}{
		"name":       name,
		"inputs":     h.truncate(inputs),
		"tags":       tags,
		"metadata":   metadata,
		"importance": "medium",
	}))
}

// OnChainEnd records the completion of a chain invocation.
func (h *Handler) OnChainEnd(run Run, outputs interface{}) {
	h.enqueue(h.newEvent("chain_end", run, map[string]interface{}{
		"outputs":    h.truncate(outputs),
		"importance": "high",
	}))
}

// OnChainError records a chain failure.
func (h *Handler) OnChainError(run Run, err error) {
	h.enqueue(h.newEvent("chain_error", run, map[string]interface{}{
		"error":      h.truncate(err),
		"error_type": fmt.Sprintf("%T", err),
		"importance": "critical",
	}))
}

// OnToolStart records the start of a tool invocation.
func (h *Handler) OnToolStart(run Run, tool, input string, tags []string, metadata map[string]interface{}) {
	if tool == "" {
		tool = "tool"
	}
	h.enqueue(h.newEvent("tool_start", run, map[string]interface{}{
		"tool":       tool,
		"input":      h.truncate(input),
		"tags":       tags,
		"metadata":   metadata,
		"importance": "high",
	}))
}

// OnToolEnd records the completion of a tool invocation.
func (h *Handler) OnToolEnd(run Run, output interface{}) {
	h.enqueue(h.newEvent("tool_end", run, map[string]interface{}{
		"output":     h.truncate(output),
		"importance": "high",
	}))
}

// OnToolEndWithScreenshot records a tool completion together with a
// pre-captured screenshot, attached as base64 on the envelope.
func (h *Handler) OnToolEndWithScreenshot(run Run, output interface{}, screenshot []byte) {
	event := h.newEvent("tool_end", run, map[string]interface{}{
		"output":     h.truncate(output),
		"importance": "high",
	})
	event.ScreenshotBase64 = EncodeScreenshot(screenshot)
	h.enqueue(event)
}

// OnToolError records a tool failure.
func (h *Handler) OnToolError(run Run, err error) {
	h.enqueue(h.newEvent("tool_error", run, map[string]interface{}{
		"error":      h.truncate(err),
		"error_type": fmt.Sprintf("%T", err),
		"importance": "critical",
	}))
}

// OnLLMStart records the start of an LLM call.
func (h *Handler) OnLLMStart(run Run, model string, promptCount int) {
	if model == "" {
		model = "llm"
	}
	h.enqueue(h.newEvent("llm_start", run, map[string]interface{}{
		"model":        model,
		"prompt_count": promptCount,
		"importance":   "medium",
	}))
}

// OnLLMEnd records the completion of an LLM call.
func (h *Handler) OnLLMEnd(run Run, generations int) {
	h.enqueue(h.newEvent("llm_end", run, map[string]interface{}{
		"generations": generations,
		"importance":  "medium",
	}))
}

// OnAgentAction records an agent deciding to invoke a tool.
func (h *Handler) OnAgentAction(run Run, tool, toolInput string) {
	h.enqueue(h.newEvent("agent_action", run, map[string]interface{}{
		"tool":       tool,
		"tool_input": h.truncate(toolInput),
		"importance": "high",
	}))
}

// OnAgentFinish records an agent finishing with its return values.
func (h *Handler) OnAgentFinish(run Run, returnValues interface{}) {
	h.enqueue(h.newEvent("agent_finish", run, map[string]interface{}{
		"return_values": h.truncate(returnValues),
		"importance":    "high",
	}))
}
