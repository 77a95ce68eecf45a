package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/epilog-dev/epilog/internal/domain"
)

// CreateSession creates a new trace session with a fresh id.
func (s *Service) CreateSession(ctx context.Context, req *domain.CreateSessionRequest) (*domain.Session, error) {
	session := &domain.Session{
		SessionID: uuid.NewString(),
		Name:      req.Name,
		StartedAt: time.Now().UTC(),
		Status:    domain.SessionStatusRunning,
		Metadata:  req.Metadata,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession retrieves a session by id.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.store.GetSession(ctx, sessionID)
}

// ListSessions lists sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, skip, limit int) ([]domain.Session, error) {
	return s.store.ListSessions(ctx, skip, limit)
}

// EndSession marks a session as completed or failed.
func (s *Service) EndSession(ctx context.Context, sessionID string, status domain.SessionStatus) (*domain.Session, error) {
	if status != domain.SessionStatusCompleted && status != domain.SessionStatusFailed {
		status = domain.SessionStatusCompleted
	}
	if err := s.store.EndSession(ctx, sessionID, status); err != nil {
		return nil, err
	}
	return s.store.GetSession(ctx, sessionID)
}
