package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/epilog-dev/epilog/internal/domain"
)

// IngestEvent validates and persists one trace event, returning it with
// the store-assigned id.
func (s *Service) IngestEvent(ctx context.Context, req *domain.CreateEventRequest) (*domain.TraceEvent, error) {
	eventType := domain.EventType(req.EventType)
	if !domain.ValidEventType(eventType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEventType, req.EventType)
	}

	// Reject unknown sessions before persistence.
	if _, err := s.store.GetSession(ctx, req.SessionID); err != nil {
		return nil, err
	}

	var screenshot []byte
	if req.ScreenshotBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.ScreenshotBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScreenshot, err)
		}
		screenshot = decoded
	}

	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}

	event := &domain.TraceEvent{
		SessionID:   req.SessionID,
		RunID:       req.RunID,
		ParentRunID: req.ParentRunID,
		EventType:   eventType,
		Timestamp:   req.Timestamp,
		EventData:   req.EventData,
		Screenshot:  screenshot,
	}
	if err := s.store.InsertEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// SessionEvents returns session events in ascending id order.
func (s *Service) SessionEvents(ctx context.Context, sessionID string, skip, limit int) ([]domain.TraceEvent, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.ListSessionEvents(ctx, sessionID, skip, limit)
}

// EventsAfter returns session events with id greater than afterID, used by
// the live push stream.
func (s *Service) EventsAfter(ctx context.Context, sessionID string, afterID int64, limit int) ([]domain.TraceEvent, error) {
	return s.store.ListEventsAfter(ctx, sessionID, afterID, limit)
}

// EventScreenshot returns the screenshot bytes for an event.
func (s *Service) EventScreenshot(ctx context.Context, eventID int64) ([]byte, error) {
	return s.store.GetScreenshot(ctx, eventID)
}
