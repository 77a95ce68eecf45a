package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientCreateSessionAndSendEvent(t *testing.T) {
	var gotEvent Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/traces/sessions":
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"id": "abc-123"})
		case "/api/v1/traces/events":
			if err := json.NewDecoder(r.Body).Decode(&gotEvent); err != nil {
				t.Errorf("decode event: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]int64{"id": 7})
		case "/api/v1/traces/sessions/abc-123/end":
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "completed"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	id, err := client.CreateSession(ctx, "demo", nil)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if id != "abc-123" {
		t.Fatalf("unexpected session id %q", id)
	}

	eventID, err := client.SendEvent(ctx, &Event{
		SessionID: id,
		RunID:     "r1",
		EventType: "tool_start",
		Timestamp: time.Now().UTC(),
		EventData: map[string]interface{}{"tool": "browser", "importance": "high"},
	})
	if err != nil {
		t.Fatalf("SendEvent failed: %v", err)
	}
	if eventID != 7 {
		t.Fatalf("unexpected event id %d", eventID)
	}
	if gotEvent.EventType != "tool_start" || gotEvent.SessionID != "abc-123" {
		t.Fatalf("unexpected wire envelope: %+v", gotEvent)
	}

	if err := client.EndSession(ctx, id, false); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
}

func TestClientSendEventServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	if _, err := client.SendEvent(context.Background(), &Event{EventType: "chain_start"}); err == nil {
		t.Fatal("expected error on 5xx response")
	}
}

func TestHandlerEndToEnd(t *testing.T) {
	var received []Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/traces/sessions":
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"id": "s1"})
		case "/api/v1/traces/events":
			var e Event
			json.NewDecoder(r.Body).Decode(&e)
			received = append(received, e)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]int64{"id": int64(len(received))})
		default:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	h := NewHandler(NewClient(srv.URL, time.Second), WithSessionName("e2e"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := h.StartSession(ctx); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	run := Run{RunID: NewRunID()}
	h.OnChainStart(run, "agent", "goal", nil, nil)
	h.OnToolEndWithScreenshot(Run{RunID: NewRunID(), ParentRunID: run.RunID}, "clicked", []byte{0xff, 0xd8, 0xff})
	h.OnChainEnd(run, "done")

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := h.Flush(flushCtx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if len(received) != 3 {
		t.Fatalf("expected 3 events, got %d", len(received))
	}
	if received[0].EventType != "chain_start" || received[1].EventType != "tool_end" || received[2].EventType != "chain_end" {
		t.Fatalf("unexpected event order: %+v", received)
	}
	if received[1].ScreenshotBase64 == "" {
		t.Fatal("tool_end screenshot missing")
	}
}
