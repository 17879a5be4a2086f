package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/leave"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/database"
)

type requestRepositoryImpl struct {
	db *database.DB
}

func NewRequestRepository(db *database.DB) leave.RequestRepository {
	return &requestRepositoryImpl{db: db}
}

const requestColumns = `
	r.id, r.user_id, r.leave_type, r.start_date, r.end_date, r.total_days,
	r.is_urgent, r.urgent_multiplier, r.actual_days, r.status, r.previous_status,
	r.reason, r.attachment_url,
	r.approved_by, r.approved_at, r.rejected_by, r.rejected_at, r.rejected_reason,
	r.cancelled_by, r.cancelled_at, r.cancel_reason,
	r.created_at, r.updated_at`

func scanRequest(row pgx.Row) (leave.Request, error) {
	var req leave.Request
	err := row.Scan(
		&req.ID, &req.UserID, &req.Type, &req.StartDate, &req.EndDate, &req.TotalDays,
		&req.IsUrgent, &req.UrgentMultiplier, &req.ActualDays, &req.Status, &req.PreviousStatus,
		&req.Reason, &req.AttachmentURL,
		&req.ApprovedBy, &req.ApprovedAt, &req.RejectedBy, &req.RejectedAt, &req.RejectedReason,
		&req.CancelledBy, &req.CancelledAt, &req.CancelReason,
		&req.CreatedAt, &req.UpdatedAt,
	)
	return req, err
}

// Create implements leave.RequestRepository.
func (r *requestRepositoryImpl) Create(ctx context.Context, request leave.Request) (leave.Request, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		INSERT INTO leave_requests (
			user_id, leave_type, start_date, end_date, total_days,
			is_urgent, urgent_multiplier, actual_days, status, reason, attachment_url
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := q.QueryRow(ctx, query,
		request.UserID, request.Type, request.StartDate, request.EndDate, request.TotalDays,
		request.IsUrgent, request.UrgentMultiplier, request.ActualDays, request.Status,
		request.Reason, request.AttachmentURL,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		return leave.Request{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return request, nil
}

// GetByID implements leave.RequestRepository.
func (r *requestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.Request, error) {
	return r.getByID(ctx, id, "")
}

// GetByIDForUpdate implements leave.RequestRepository.
func (r *requestRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (leave.Request, error) {
	return r.getByID(ctx, id, " FOR UPDATE")
}

func (r *requestRepositoryImpl) getByID(ctx context.Context, id string, lock string) (leave.Request, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `SELECT ` + requestColumns + ` FROM leave_requests r WHERE r.id = $1` + lock

	request, err := scanRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Request{}, leave.ErrRequestNotFound
		}
		return leave.Request{}, fmt.Errorf("failed to get leave request with id %s: %w", id, err)
	}
	return request, nil
}

// Update implements leave.RequestRepository.
func (r *requestRepositoryImpl) Update(ctx context.Context, request leave.Request) error {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		UPDATE leave_requests
		SET status = $1, previous_status = $2,
			approved_by = $3, approved_at = $4,
			rejected_by = $5, rejected_at = $6, rejected_reason = $7,
			cancelled_by = $8, cancelled_at = $9, cancel_reason = $10,
			updated_at = NOW()
		WHERE id = $11
		RETURNING id`

	var updatedID string
	err := q.QueryRow(ctx, query,
		request.Status, request.PreviousStatus,
		request.ApprovedBy, request.ApprovedAt,
		request.RejectedBy, request.RejectedAt, request.RejectedReason,
		request.CancelledBy, request.CancelledAt, request.CancelReason,
		request.ID,
	).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.ErrRequestNotFound
		}
		return fmt.Errorf("failed to update leave request with id %s: %w", request.ID, err)
	}
	return nil
}

// ListByUser implements leave.RequestRepository.
func (r *requestRepositoryImpl) ListByUser(ctx context.Context, userID string, status string) ([]leave.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM leave_requests r
		WHERE r.user_id = $1 AND ($2 = '' OR r.status = $2)
		ORDER BY r.created_at DESC`

	return r.list(ctx, query, userID, status)
}

// ListByStatus implements leave.RequestRepository.
func (r *requestRepositoryImpl) ListByStatus(ctx context.Context, status string) ([]leave.Request, error) {
	query := `
		SELECT ` + requestColumns + `, u.full_name
		FROM leave_requests r
		JOIN users u ON u.id = r.user_id
		WHERE ($1 = '' OR r.status = $1)
		ORDER BY r.created_at DESC`

	q := database.QuerierFrom(ctx, r.db)

	rows, err := q.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		var req leave.Request
		err := rows.Scan(
			&req.ID, &req.UserID, &req.Type, &req.StartDate, &req.EndDate, &req.TotalDays,
			&req.IsUrgent, &req.UrgentMultiplier, &req.ActualDays, &req.Status, &req.PreviousStatus,
			&req.Reason, &req.AttachmentURL,
			&req.ApprovedBy, &req.ApprovedAt, &req.RejectedBy, &req.RejectedAt, &req.RejectedReason,
			&req.CancelledBy, &req.CancelledAt, &req.CancelReason,
			&req.CreatedAt, &req.UpdatedAt,
			&req.UserName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *requestRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]leave.Request, error) {
	q := database.QuerierFrom(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}
