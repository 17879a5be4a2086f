package leave

import (
	"context"
)

// QuotaRepository - per-user/year quota ledger rows plus append-only history
type QuotaRepository interface {
	Create(ctx context.Context, quota QuotaYear) (QuotaYear, error)

	// GetYear returns the ledger row, or ErrQuotaNotFound. Read-only: it
	// never creates the sentinel as a side effect.
	GetYear(ctx context.Context, userID string, year int) (QuotaYear, error)

	// GetYearForUpdate is GetYear with a row lock; must run inside a
	// transaction.
	GetYearForUpdate(ctx context.Context, userID string, year int) (QuotaYear, error)

	// UpdateBalances writes all six total/used columns and the recomputed
	// remaining values.
	UpdateBalances(ctx context.Context, quota QuotaYear) error

	AppendHistory(ctx context.Context, entry QuotaHistory) error
	ListHistory(ctx context.Context, userID string, year int) ([]QuotaHistory, error)
}

// RequestRepository - leave requests in one lifecycle-queryable collection
type RequestRepository interface {
	Create(ctx context.Context, request Request) (Request, error)
	GetByID(ctx context.Context, id string) (Request, error)

	// GetByIDForUpdate locks the request row so a concurrent approver's
	// "must be pending" guard is actually enforced.
	GetByIDForUpdate(ctx context.Context, id string) (Request, error)

	Update(ctx context.Context, request Request) error
	ListByUser(ctx context.Context, userID string, status string) ([]Request, error)
	ListByStatus(ctx context.Context, status string) ([]Request, error)
}

// CarryOverRepository - diagnostic run markers
type CarryOverRepository interface {
	RecordRun(ctx context.Context, run CarryOverRun) (CarryOverRun, error)

	// GetLastRun returns the most recent marker for the year pair, or nil.
	GetLastRun(ctx context.Context, fromYear, toYear int) (*CarryOverRun, error)
}
