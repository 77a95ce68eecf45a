package sdk

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handler is the instrumentation entry point for an agent. It owns one
// session and one buffer; its On* callbacks build envelopes and enqueue
// them without ever blocking or failing the caller.
type Handler struct {
	client      *Client
	buffer      *Buffer
	sessionName string
	sessionID   string
	maxFieldLen int
}

// HandlerOption configures a Handler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	sessionName string
	maxFieldLen int
	bufferOpts  []BufferOption
}

// WithSessionName sets the display name of the created session.
func WithSessionName(name string) HandlerOption {
	return func(c *handlerConfig) { c.sessionName = name }
}

// WithMaxFieldLength overrides the free-text truncation limit.
func WithMaxFieldLength(n int) HandlerOption {
	return func(c *handlerConfig) {
		if n > 0 {
			c.maxFieldLen = n
		}
	}
}

// WithBufferOptions forwards options to the underlying buffer.
func WithBufferOptions(opts ...BufferOption) HandlerOption {
	return func(c *handlerConfig) { c.bufferOpts = append(c.bufferOpts, opts...) }
}

// NewHandler creates a handler posting to the given API base URL.
func NewHandler(client *Client, opts ...HandlerOption) *Handler {
	cfg := &handlerConfig{maxFieldLen: DefaultMaxFieldLength}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.bufferOpts = append([]BufferOption{WithSendTimeout(client.Timeout())}, cfg.bufferOpts...)

	h := &Handler{
		client:      client,
		sessionName: cfg.sessionName,
		maxFieldLen: cfg.maxFieldLen,
	}
	h.buffer = NewBuffer(TransportFunc(h.send), cfg.bufferOpts...)
	return h
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// StartSession creates the trace session and launches the background
// worker. Idempotent with respect to both.
func (h *Handler) StartSession(ctx context.Context) (string, error) {
	if h.sessionID == "" {
		id, err := h.client.CreateSession(ctx, h.sessionName, nil)
		if err != nil {
			return "", fmt.Errorf("failed to start trace session: %w", err)
		}
		h.sessionID = id
	}
	h.buffer.Start(ctx)
	return h.sessionID, nil
}

// SessionID returns the current session id, empty before StartSession.
func (h *Handler) SessionID() string {
	return h.sessionID
}

// Flush waits until every buffered event has been processed.
func (h *Handler) Flush(ctx context.Context) error {
	return h.buffer.Flush(ctx)
}

// EndSession flushes the buffer and closes the session on the server.
func (h *Handler) EndSession(ctx context.Context, failed bool) error {
	if h.sessionID == "" {
		return nil
	}
	if err := h.buffer.Flush(ctx); err != nil {
		return err
	}
	return h.client.EndSession(ctx, h.sessionID, failed)
}

// EncodeScreenshot encodes screenshot bytes for the wire envelope.
// Returns empty for empty input.
func EncodeScreenshot(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

func (h *Handler) truncate(value interface{}) string {
	return truncate(value, h.maxFieldLen)
}

// enqueue validates and buffers an envelope. A handler without a started
// session drops events silently, mirroring the rest of the pipeline's
// never-propagate contract.
func (h *Handler) enqueue(event *Event) {
	if h.sessionID == "" {
		log.Debug().Str("event_type", event.EventType).Msg("dropping trace event before session start")
		return
	}
	h.buffer.Enqueue(event)
}

func (h *Handler) send(ctx context.Context, event *Event) error {
	_, err := h.client.SendEvent(ctx, event)
	return err
}
