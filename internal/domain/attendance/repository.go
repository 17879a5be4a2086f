package attendance

import (
	"context"
	"time"
)

// SessionRepository defines data access for attendance sessions. Sessions
// are keyed by (date, record); the open-session lookups scan a two-day
// window so overnight shifts are found.
type SessionRepository interface {
	// Create inserts a new session record
	Create(ctx context.Context, session Session) (Session, error)

	// GetByID retrieves a session by id
	GetByID(ctx context.Context, id string) (Session, error)

	// GetOpenSession returns the user's checked-in session with date in
	// [from, to], or nil when none exists.
	GetOpenSession(ctx context.Context, userID string, from, to time.Time) (*Session, error)

	// GetOpenSessionForUpdate is GetOpenSession with a row lock; must run
	// inside a transaction. The check-in existence check uses it so two
	// concurrent check-ins cannot both observe "no active session".
	GetOpenSessionForUpdate(ctx context.Context, userID string, from, to time.Time) (*Session, error)

	// Update updates an existing session record
	Update(ctx context.Context, session Session) error

	// List retrieves sessions with filters and pagination
	List(ctx context.Context, filter SessionFilter) ([]Session, int64, error)

	// GetStaleOpenSessions returns still-checked-in sessions with date >= from
	// whose check-in is older than the cutoff.
	GetStaleOpenSessions(ctx context.Context, from time.Time, checkedInBefore time.Time) ([]Session, error)

	// AppendEdit appends an edit-history entry. History is append-only.
	AppendEdit(ctx context.Context, edit SessionEdit) error

	// ListEdits returns a session's edit history, oldest first.
	ListEdits(ctx context.Context, sessionID string) ([]SessionEdit, error)
}
