package leave

import (
	"context"
)

// QuotaService manages the per-user/year quota ledger.
type QuotaService interface {
	// EnsureYear returns the user's ledger row for the year, creating the
	// all-zero sentinel when absent. The bool reports whether this call
	// created it.
	EnsureYear(ctx context.Context, userID string, year int) (QuotaYear, bool, error)

	// GetYear returns the caller-visible balance snapshot, initializing the
	// sentinel row when absent. Employees may only read their own ledger.
	GetYear(ctx context.Context, userID string, year int) (QuotaYearResponse, error)

	// SetTypeTotal overwrites one type's total allotment (HR only). Used is
	// untouched and remaining is recomputed, which may leave it negative.
	SetTypeTotal(ctx context.Context, req SetQuotaRequest) (QuotaYearResponse, error)

	// ListHistory returns the ledger's append-only history, oldest first.
	ListHistory(ctx context.Context, userID string, year int) ([]QuotaHistory, error)
}

// RequestService drives the leave request lifecycle. Quota is debited on
// approval only; submission just validates against the remaining balance.
type RequestService interface {
	Submit(ctx context.Context, req SubmitRequest) (RequestResponse, error)

	// Approve debits the quota and marks the request approved in one
	// transaction (HR only).
	Approve(ctx context.Context, id string) (RequestResponse, error)

	// Reject declines a pending request with a reason (HR only).
	Reject(ctx context.Context, req RejectRequest) (RequestResponse, error)

	// Cancel withdraws the caller's own pending request.
	Cancel(ctx context.Context, id string) (RequestResponse, error)

	// CancelApproved cancels an already-approved request and refunds the
	// debited days (HR only).
	CancelApproved(ctx context.Context, req CancelApprovedRequest) (RequestResponse, error)

	GetRequest(ctx context.Context, id string) (RequestResponse, error)
	ListMyRequests(ctx context.Context, status string) ([]RequestResponse, error)

	// ListRequests lists all users' requests, optionally by status (HR only).
	ListRequests(ctx context.Context, status string) ([]RequestResponse, error)
}

// CarryOverService runs the annual carry-over batch (admin only).
type CarryOverService interface {
	Run(ctx context.Context, req RunCarryOverRequest) (CarryOverSummary, error)
}
