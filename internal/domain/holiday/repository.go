package holiday

import (
	"context"
	"time"
)

// HolidayRepository is the read-only holiday calendar collaborator.
type HolidayRepository interface {
	// GetByDate returns the holiday entry for a calendar date, or nil when
	// the date has none.
	GetByDate(ctx context.Context, date time.Time) (*Holiday, error)

	// GetByDateRange returns holiday entries with date in [from, to].
	GetByDateRange(ctx context.Context, from, to time.Time) ([]Holiday, error)
}
