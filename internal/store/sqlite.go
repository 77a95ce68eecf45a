package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/epilog-dev/epilog/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS trace_sessions (
			session_id TEXT PRIMARY KEY,
			name TEXT,
			started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME,
			status TEXT NOT NULL DEFAULT 'running',
			metadata TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trace_sessions_started ON trace_sessions(started_at)`,
		`CREATE TABLE IF NOT EXISTS trace_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			run_id TEXT NOT NULL,
			parent_run_id TEXT,
			event_type TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			event_data TEXT NOT NULL,
			screenshot BLOB,
			FOREIGN KEY (session_id) REFERENCES trace_sessions(session_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trace_events_session ON trace_events(session_id, id)`,
		`CREATE INDEX IF NOT EXISTS idx_trace_events_run ON trace_events(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trace_events_type ON trace_events(event_type)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession creates a new trace session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	var name sql.NullString
	if session.Name != "" {
		name = sql.NullString{String: session.Name, Valid: true}
	}
	var metadata sql.NullString
	if len(session.Metadata) > 0 {
		metadata = sql.NullString{String: string(session.Metadata), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trace_sessions (session_id, name, started_at, status, metadata) VALUES (?, ?, ?, ?, ?)`,
		session.SessionID, name, session.StartedAt, session.Status, metadata)
	return err
}

// GetSession retrieves a session by ID, including its event count.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT s.session_id, s.name, s.started_at, s.ended_at, s.status, s.metadata,
			(SELECT COUNT(*) FROM trace_events e WHERE e.session_id = s.session_id)
		 FROM trace_sessions s WHERE s.session_id = ?`,
		sessionID)

	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions retrieves sessions ordered by start time descending.
func (s *SQLiteStore) ListSessions(ctx context.Context, skip, limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.session_id, s.name, s.started_at, s.ended_at, s.status, s.metadata,
			(SELECT COUNT(*) FROM trace_events e WHERE e.session_id = s.session_id)
		 FROM trace_sessions s ORDER BY s.started_at DESC LIMIT ? OFFSET ?`,
		limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// EndSession sets the terminal status and end timestamp of a session.
func (s *SQLiteStore) EndSession(ctx context.Context, sessionID string, status domain.SessionStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE trace_sessions SET status = ?, ended_at = ? WHERE session_id = ?`,
		status, time.Now().UTC(), sessionID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertEvent persists an event and fills in the assigned id.
func (s *SQLiteStore) InsertEvent(ctx context.Context, event *domain.TraceEvent) error {
	var parentRunID sql.NullString
	if event.ParentRunID != "" {
		parentRunID = sql.NullString{String: event.ParentRunID, Valid: true}
	}
	eventData := "{}"
	if len(event.EventData) > 0 {
		eventData = string(event.EventData)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO trace_events (session_id, run_id, parent_run_id, event_type, timestamp, event_data, screenshot)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.SessionID, event.RunID, parentRunID, event.EventType, event.Timestamp, eventData, event.Screenshot)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	event.ID = id
	return nil
}

// GetEvent retrieves an event by its assigned id, screenshot included.
func (s *SQLiteStore) GetEvent(ctx context.Context, eventID int64) (*domain.TraceEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, run_id, parent_run_id, event_type, timestamp, event_data, screenshot
		 FROM trace_events WHERE id = ?`,
		eventID)

	var event domain.TraceEvent
	var parentRunID sql.NullString
	var eventData sql.NullString
	err := row.Scan(&event.ID, &event.SessionID, &event.RunID, &parentRunID,
		&event.EventType, &event.Timestamp, &eventData, &event.Screenshot)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if parentRunID.Valid {
		event.ParentRunID = parentRunID.String
	}
	if eventData.Valid {
		event.EventData = []byte(eventData.String)
	}
	return &event, nil
}

// ListSessionEvents retrieves session events in ascending id order.
// Screenshots are replaced by a presence marker to keep result sets small.
func (s *SQLiteStore) ListSessionEvents(ctx context.Context, sessionID string, skip, limit int) ([]domain.TraceEvent, error) {
	if limit <= 0 {
		limit = 1000
	}
	return s.queryEvents(ctx,
		`SELECT id, session_id, run_id, parent_run_id, event_type, timestamp, event_data,
			CASE WHEN screenshot IS NOT NULL THEN X'01' ELSE NULL END
		 FROM trace_events WHERE session_id = ? ORDER BY id ASC LIMIT ? OFFSET ?`,
		sessionID, limit, skip)
}

// ListEventsBefore retrieves up to limit events with id < beforeID, descending.
func (s *SQLiteStore) ListEventsBefore(ctx context.Context, sessionID string, beforeID int64, limit int) ([]domain.TraceEvent, error) {
	return s.queryEvents(ctx,
		`SELECT id, session_id, run_id, parent_run_id, event_type, timestamp, event_data,
			CASE WHEN screenshot IS NOT NULL THEN X'01' ELSE NULL END
		 FROM trace_events WHERE session_id = ? AND id < ? ORDER BY id DESC LIMIT ?`,
		sessionID, beforeID, limit)
}

// ListEventsAfter retrieves events with id > afterID, ascending.
func (s *SQLiteStore) ListEventsAfter(ctx context.Context, sessionID string, afterID int64, limit int) ([]domain.TraceEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.queryEvents(ctx,
		`SELECT id, session_id, run_id, parent_run_id, event_type, timestamp, event_data,
			CASE WHEN screenshot IS NOT NULL THEN X'01' ELSE NULL END
		 FROM trace_events WHERE session_id = ? AND id > ? ORDER BY id ASC LIMIT ?`,
		sessionID, afterID, limit)
}

// GetScreenshot retrieves the screenshot bytes for an event.
func (s *SQLiteStore) GetScreenshot(ctx context.Context, eventID int64) ([]byte, error) {
	var screenshot []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT screenshot FROM trace_events WHERE id = ?`,
		eventID).Scan(&screenshot)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(screenshot) == 0 {
		return nil, ErrNotFound
	}
	return screenshot, nil
}

func (s *SQLiteStore) queryEvents(ctx context.Context, query string, args ...interface{}) ([]domain.TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.TraceEvent
	for rows.Next() {
		var event domain.TraceEvent
		var parentRunID, eventData sql.NullString
		if err := rows.Scan(&event.ID, &event.SessionID, &event.RunID, &parentRunID,
			&event.EventType, &event.Timestamp, &eventData, &event.Screenshot); err != nil {
			return nil, err
		}
		if parentRunID.Valid {
			event.ParentRunID = parentRunID.String
		}
		if eventData.Valid {
			event.EventData = []byte(eventData.String)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var session domain.Session
	var name, metadata sql.NullString
	var endedAt sql.NullTime
	err := row.Scan(&session.SessionID, &name, &session.StartedAt, &endedAt,
		&session.Status, &metadata, &session.EventCount)
	if err != nil {
		return nil, err
	}
	if name.Valid {
		session.Name = name.String
	}
	if endedAt.Valid {
		session.EndedAt = &endedAt.Time
	}
	if metadata.Valid {
		session.Metadata = []byte(metadata.String)
	}
	return &session, nil
}
