package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/leave"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/database"
)

type carryOverRepositoryImpl struct {
	db *database.DB
}

func NewCarryOverRepository(db *database.DB) leave.CarryOverRepository {
	return &carryOverRepositoryImpl{db: db}
}

// RecordRun implements leave.CarryOverRepository.
func (r *carryOverRepositoryImpl) RecordRun(ctx context.Context, run leave.CarryOverRun) (leave.CarryOverRun, error) {
	q := database.QuerierFrom(ctx, r.db)

	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	query := `
		INSERT INTO leave_carryover_runs (id, from_year, to_year, executor_id, total_users, success_count, failed_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := q.QueryRow(ctx, query,
		run.ID, run.FromYear, run.ToYear, run.ExecutorID, run.TotalUsers, run.SuccessCount, run.FailedCount,
	).Scan(&run.CreatedAt)
	if err != nil {
		return leave.CarryOverRun{}, fmt.Errorf("failed to record carry-over run: %w", err)
	}
	return run, nil
}

// GetLastRun implements leave.CarryOverRepository.
func (r *carryOverRepositoryImpl) GetLastRun(ctx context.Context, fromYear, toYear int) (*leave.CarryOverRun, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT id, from_year, to_year, executor_id, total_users, success_count, failed_count, created_at
		FROM leave_carryover_runs
		WHERE from_year = $1 AND to_year = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var run leave.CarryOverRun
	err := q.QueryRow(ctx, query, fromYear, toYear).Scan(
		&run.ID, &run.FromYear, &run.ToYear, &run.ExecutorID,
		&run.TotalUsers, &run.SuccessCount, &run.FailedCount, &run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last carry-over run: %w", err)
	}
	return &run, nil
}
