package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/leave"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/database"
)

type quotaRepositoryImpl struct {
	db *database.DB
}

func NewQuotaRepository(db *database.DB) leave.QuotaRepository {
	return &quotaRepositoryImpl{db: db}
}

const quotaColumns = `
	id, user_id, year,
	sick_total, sick_used, sick_remaining,
	personal_total, personal_used, personal_remaining,
	vacation_total, vacation_used, vacation_remaining,
	created_at, updated_at`

func scanQuota(row pgx.Row) (leave.QuotaYear, error) {
	var q leave.QuotaYear
	err := row.Scan(
		&q.ID, &q.UserID, &q.Year,
		&q.Sick.Total, &q.Sick.Used, &q.Sick.Remaining,
		&q.Personal.Total, &q.Personal.Used, &q.Personal.Remaining,
		&q.Vacation.Total, &q.Vacation.Used, &q.Vacation.Remaining,
		&q.CreatedAt, &q.UpdatedAt,
	)
	return q, err
}

// Create implements leave.QuotaRepository.
func (r *quotaRepositoryImpl) Create(ctx context.Context, quota leave.QuotaYear) (leave.QuotaYear, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		INSERT INTO leave_quota_years (
			user_id, year,
			sick_total, sick_used, sick_remaining,
			personal_total, personal_used, personal_remaining,
			vacation_total, vacation_used, vacation_remaining
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, year) DO NOTHING
		RETURNING ` + quotaColumns

	created, err := scanQuota(q.QueryRow(ctx, query,
		quota.UserID, quota.Year,
		quota.Sick.Total, quota.Sick.Used, quota.Sick.Remaining,
		quota.Personal.Total, quota.Personal.Used, quota.Personal.Remaining,
		quota.Vacation.Total, quota.Vacation.Used, quota.Vacation.Remaining,
	))
	if err != nil {
		// Lost the insert race: the row exists, read it back.
		if errors.Is(err, pgx.ErrNoRows) {
			return r.GetYear(ctx, quota.UserID, quota.Year)
		}
		return leave.QuotaYear{}, fmt.Errorf("failed to create quota year: %w", err)
	}
	return created, nil
}

// GetYear implements leave.QuotaRepository.
func (r *quotaRepositoryImpl) GetYear(ctx context.Context, userID string, year int) (leave.QuotaYear, error) {
	return r.getYear(ctx, userID, year, "")
}

// GetYearForUpdate implements leave.QuotaRepository.
func (r *quotaRepositoryImpl) GetYearForUpdate(ctx context.Context, userID string, year int) (leave.QuotaYear, error) {
	return r.getYear(ctx, userID, year, " FOR UPDATE")
}

func (r *quotaRepositoryImpl) getYear(ctx context.Context, userID string, year int, lock string) (leave.QuotaYear, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `SELECT ` + quotaColumns + ` FROM leave_quota_years WHERE user_id = $1 AND year = $2` + lock

	quota, err := scanQuota(q.QueryRow(ctx, query, userID, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.QuotaYear{}, leave.ErrQuotaNotFound
		}
		return leave.QuotaYear{}, fmt.Errorf("failed to get quota year for user %s: %w", userID, err)
	}
	return quota, nil
}

// UpdateBalances implements leave.QuotaRepository.
func (r *quotaRepositoryImpl) UpdateBalances(ctx context.Context, quota leave.QuotaYear) error {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		UPDATE leave_quota_years
		SET sick_total = $1, sick_used = $2, sick_remaining = $3,
			personal_total = $4, personal_used = $5, personal_remaining = $6,
			vacation_total = $7, vacation_used = $8, vacation_remaining = $9,
			updated_at = NOW()
		WHERE user_id = $10 AND year = $11
		RETURNING id`

	var updatedID string
	err := q.QueryRow(ctx, query,
		quota.Sick.Total, quota.Sick.Used, quota.Sick.Remaining,
		quota.Personal.Total, quota.Personal.Used, quota.Personal.Remaining,
		quota.Vacation.Total, quota.Vacation.Used, quota.Vacation.Remaining,
		quota.UserID, quota.Year,
	).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.ErrQuotaNotFound
		}
		return fmt.Errorf("failed to update balances for user %s: %w", quota.UserID, err)
	}
	return nil
}

// AppendHistory implements leave.QuotaRepository.
func (r *quotaRepositoryImpl) AppendHistory(ctx context.Context, entry leave.QuotaHistory) error {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		INSERT INTO leave_quota_history (user_id, year, leave_type, total_delta, used_delta, reason, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := q.Exec(ctx, query,
		entry.UserID, entry.Year, entry.Type, entry.TotalDelta, entry.UsedDelta, entry.Reason, entry.ActorID,
	); err != nil {
		return fmt.Errorf("failed to append quota history: %w", err)
	}
	return nil
}

// ListHistory implements leave.QuotaRepository.
func (r *quotaRepositoryImpl) ListHistory(ctx context.Context, userID string, year int) ([]leave.QuotaHistory, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT id, user_id, year, leave_type, total_delta, used_delta, reason, actor_id, created_at
		FROM leave_quota_history
		WHERE user_id = $1 AND year = $2
		ORDER BY created_at`

	rows, err := q.Query(ctx, query, userID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list quota history: %w", err)
	}
	defer rows.Close()

	var entries []leave.QuotaHistory
	for rows.Next() {
		var e leave.QuotaHistory
		if err := rows.Scan(&e.ID, &e.UserID, &e.Year, &e.Type, &e.TotalDelta, &e.UsedDelta, &e.Reason, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quota history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
