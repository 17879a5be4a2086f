package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/holiday"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/database"
)

type holidayRepositoryImpl struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) holiday.HolidayRepository {
	return &holidayRepositoryImpl{db: db}
}

// GetByDate implements holiday.HolidayRepository.
func (r *holidayRepositoryImpl) GetByDate(ctx context.Context, date time.Time) (*holiday.Holiday, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT id, date, name, is_working_day, overtime_multipliers, site_ids, roles
		FROM holidays
		WHERE date = $1`

	var h holiday.Holiday
	err := q.QueryRow(ctx, query, date).Scan(
		&h.ID, &h.Date, &h.Name, &h.IsWorkingDay, &h.OvertimeMultipliers,
		&h.SiteIDs, &h.Roles,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get holiday for %s: %w", date.Format("2006-01-02"), err)
	}
	return &h, nil
}

// GetByDateRange implements holiday.HolidayRepository.
func (r *holidayRepositoryImpl) GetByDateRange(ctx context.Context, from, to time.Time) ([]holiday.Holiday, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT id, date, name, is_working_day, overtime_multipliers, site_ids, roles
		FROM holidays
		WHERE date BETWEEN $1 AND $2
		ORDER BY date`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []holiday.Holiday
	for rows.Next() {
		var h holiday.Holiday
		err := rows.Scan(
			&h.ID, &h.Date, &h.Name, &h.IsWorkingDay, &h.OvertimeMultipliers,
			&h.SiteIDs, &h.Roles,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return holidays, nil
}
