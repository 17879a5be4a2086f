package attendance

import (
	"context"
)

// SessionService defines business logic for the attendance session lifecycle
type SessionService interface {
	// CheckIn classifies the event by geofence, selects a shift and creates
	// a session. The existence check and the insert run in one transaction.
	CheckIn(ctx context.Context, req CheckInRequest) (CheckInResponse, error)

	// CheckOut closes the caller's open session, computing worked figures.
	// Sessions exceeding the overtime threshold land in pending_approval.
	CheckOut(ctx context.Context, req CheckOutRequest) (SessionResponse, error)

	// ApproveOvertime recomputes a pending_approval session with overtime
	// approved and completes it (HR only).
	ApproveOvertime(ctx context.Context, sessionID string) (SessionResponse, error)

	// ManualCheckout closes someone else's abandoned session at a supplied
	// time (HR only).
	ManualCheckout(ctx context.Context, req ManualCheckoutRequest) (SessionResponse, error)

	// SweepAbandonedSessions auto-closes sessions checked in for longer than
	// the stale threshold. Idempotent; re-running skips completed sessions.
	SweepAbandonedSessions(ctx context.Context) (SweepResult, error)

	// GetSession retrieves a single session by id
	GetSession(ctx context.Context, id string) (SessionResponse, error)

	// GetSessionEdits returns a session's append-only edit history
	GetSessionEdits(ctx context.Context, id string) ([]SessionEdit, error)

	// ListSessions retrieves sessions with filters (HR only)
	ListSessions(ctx context.Context, filter SessionFilter) (ListSessionsResponse, error)

	// GetMySessions retrieves the authenticated user's sessions
	GetMySessions(ctx context.Context, filter SessionFilter) (ListSessionsResponse, error)
}
