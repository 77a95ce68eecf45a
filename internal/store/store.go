// Package store provides persistence for trace sessions and events.
package store

import (
	"context"
	"errors"

	"github.com/epilog-dev/epilog/internal/domain"
)

// ErrNotFound is returned when a session or event does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence interface for trace data.
//
// Implementations must assign event ids that increase monotonically with
// insertion and are never reused; within a session this id order is the
// causal/temporal order.
type Store interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	ListSessions(ctx context.Context, skip, limit int) ([]domain.Session, error)
	EndSession(ctx context.Context, sessionID string, status domain.SessionStatus) error

	// InsertEvent persists an event and fills in its assigned id.
	InsertEvent(ctx context.Context, event *domain.TraceEvent) error
	GetEvent(ctx context.Context, eventID int64) (*domain.TraceEvent, error)
	// ListSessionEvents returns session events in ascending id order.
	ListSessionEvents(ctx context.Context, sessionID string, skip, limit int) ([]domain.TraceEvent, error)
	// ListEventsBefore returns up to limit events of the session with id
	// strictly less than beforeID, in descending id order.
	ListEventsBefore(ctx context.Context, sessionID string, beforeID int64, limit int) ([]domain.TraceEvent, error)
	// ListEventsAfter returns session events with id strictly greater than
	// afterID, in ascending id order.
	ListEventsAfter(ctx context.Context, sessionID string, afterID int64, limit int) ([]domain.TraceEvent, error)
	GetScreenshot(ctx context.Context, eventID int64) ([]byte, error)

	Close() error
}
