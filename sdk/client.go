// Package sdk provides the client-side trace pipeline: event envelopes,
// a bounded non-blocking buffer with a background sender, and the HTTP
// ingestion client. Instrumented call sites never block or fail because
// of transport problems.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout is the default per-request timeout for the ingestion API.
const DefaultTimeout = 5 * time.Second

// Client talks to the trace ingestion API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new ingestion client for the given API base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/") + "/api/v1/traces",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Timeout returns the configured request timeout.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

type sessionResponse struct {
	ID string `json:"id"`
}

type eventResponse struct {
	ID int64 `json:"id"`
}

// CreateSession creates a new trace session and returns its id.
func (c *Client) CreateSession(ctx context.Context, name string, metadata map[string]interface{}) (string, error) {
	payload := map[string]interface{}{}
	if name != "" {
		payload["name"] = name
	}
	if metadata != nil {
		payload["metadata"] = metadata
	}

	var resp sessionResponse
	if err := c.post(ctx, "/sessions", payload, &resp); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return resp.ID, nil
}

// SendEvent sends a single trace event and returns the assigned id.
func (c *Client) SendEvent(ctx context.Context, event *Event) (int64, error) {
	var resp eventResponse
	if err := c.post(ctx, "/events", event, &resp); err != nil {
		return 0, fmt.Errorf("failed to send event: %w", err)
	}
	return resp.ID, nil
}

// EndSession marks a session as completed or failed.
func (c *Client) EndSession(ctx context.Context, sessionID string, failed bool) error {
	status := "completed"
	if failed {
		status = "failed"
	}
	payload := map[string]string{"status": status}
	if err := c.post(ctx, "/sessions/"+sessionID+"/end", payload, nil); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ingestion API error [%d]: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}
