package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/attendance"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/database"
)

type sessionRepositoryImpl struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) attendance.SessionRepository {
	return &sessionRepositoryImpl{db: db}
}

const sessionColumns = `
	s.id, s.user_id, s.date, s.site_id, s.shift_id, s.checkin_type,
	s.checkin_time, s.checkin_latitude, s.checkin_longitude,
	s.checkout_time, s.checkout_latitude, s.checkout_longitude,
	s.status, s.regular_hours, s.overtime_hours, s.break_hours, s.total_hours,
	s.is_late, s.late_minutes, s.is_early_checkout, s.is_overnight,
	s.overtime_multiplier, s.auto_checkout, s.manual_checkout,
	s.forgot_checkout, s.overtime_approved, s.created_at, s.updated_at`

func scanSession(row pgx.Row) (attendance.Session, error) {
	var s attendance.Session
	err := row.Scan(
		&s.ID, &s.UserID, &s.Date, &s.SiteID, &s.ShiftID, &s.CheckinType,
		&s.CheckinTime, &s.CheckinLatitude, &s.CheckinLongitude,
		&s.CheckoutTime, &s.CheckoutLatitude, &s.CheckoutLongitude,
		&s.Status, &s.RegularHours, &s.OvertimeHours, &s.BreakHours, &s.TotalHours,
		&s.IsLate, &s.LateMinutes, &s.IsEarlyCheckout, &s.IsOvernight,
		&s.OvertimeMultiplier, &s.AutoCheckout, &s.ManualCheckout,
		&s.ForgotCheckout, &s.OvertimeApproved, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// Create implements attendance.SessionRepository.
func (r *sessionRepositoryImpl) Create(ctx context.Context, session attendance.Session) (attendance.Session, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		INSERT INTO attendance_sessions (
			user_id, date, site_id, shift_id, checkin_type,
			checkin_time, checkin_latitude, checkin_longitude,
			status, is_late, late_minutes, overtime_multiplier
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + strings.ReplaceAll(sessionColumns, "s.", "")

	return scanSession(q.QueryRow(ctx, query,
		session.UserID, session.Date, session.SiteID, session.ShiftID, session.CheckinType,
		session.CheckinTime, session.CheckinLatitude, session.CheckinLongitude,
		session.Status, session.IsLate, session.LateMinutes, session.OvertimeMultiplier,
	))
}

// GetByID implements attendance.SessionRepository.
func (r *sessionRepositoryImpl) GetByID(ctx context.Context, id string) (attendance.Session, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `SELECT ` + sessionColumns + ` FROM attendance_sessions s WHERE s.id = $1`

	session, err := scanSession(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Session{}, attendance.ErrSessionNotFound
		}
		return attendance.Session{}, fmt.Errorf("failed to get session with id %s: %w", id, err)
	}
	return session, nil
}

// GetOpenSession implements attendance.SessionRepository.
func (r *sessionRepositoryImpl) GetOpenSession(ctx context.Context, userID string, from, to time.Time) (*attendance.Session, error) {
	return r.getOpenSession(ctx, userID, from, to, "")
}

// GetOpenSessionForUpdate implements attendance.SessionRepository.
func (r *sessionRepositoryImpl) GetOpenSessionForUpdate(ctx context.Context, userID string, from, to time.Time) (*attendance.Session, error) {
	return r.getOpenSession(ctx, userID, from, to, " FOR UPDATE")
}

func (r *sessionRepositoryImpl) getOpenSession(ctx context.Context, userID string, from, to time.Time, lock string) (*attendance.Session, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT ` + sessionColumns + `
		FROM attendance_sessions s
		WHERE s.user_id = $1 AND s.status = $2 AND s.date BETWEEN $3 AND $4
		ORDER BY s.checkin_time DESC
		LIMIT 1` + lock

	session, err := scanSession(q.QueryRow(ctx, query, userID, attendance.StatusCheckedIn, from, to))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open session for user %s: %w", userID, err)
	}
	return &session, nil
}

// Update implements attendance.SessionRepository.
func (r *sessionRepositoryImpl) Update(ctx context.Context, session attendance.Session) error {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		UPDATE attendance_sessions
		SET checkout_time = $1, checkout_latitude = $2, checkout_longitude = $3,
			status = $4, regular_hours = $5, overtime_hours = $6, break_hours = $7,
			total_hours = $8, is_late = $9, late_minutes = $10,
			is_early_checkout = $11, is_overnight = $12, overtime_multiplier = $13,
			auto_checkout = $14, manual_checkout = $15, forgot_checkout = $16,
			overtime_approved = $17, updated_at = NOW()
		WHERE id = $18
		RETURNING id`

	var updatedID string
	err := q.QueryRow(ctx, query,
		session.CheckoutTime, session.CheckoutLatitude, session.CheckoutLongitude,
		session.Status, session.RegularHours, session.OvertimeHours, session.BreakHours,
		session.TotalHours, session.IsLate, session.LateMinutes,
		session.IsEarlyCheckout, session.IsOvernight, session.OvertimeMultiplier,
		session.AutoCheckout, session.ManualCheckout, session.ForgotCheckout,
		session.OvertimeApproved, session.ID,
	).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.ErrSessionNotFound
		}
		return fmt.Errorf("failed to update session with id %s: %w", session.ID, err)
	}
	return nil
}

// List implements attendance.SessionRepository.
func (r *sessionRepositoryImpl) List(ctx context.Context, filter attendance.SessionFilter) ([]attendance.Session, int64, error) {
	q := database.QuerierFrom(ctx, r.db)

	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	addCondition := func(cond string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(cond, argPos))
		args = append(args, value)
		argPos++
	}

	if filter.UserID != "" {
		addCondition("s.user_id = $%d", filter.UserID)
	}
	if filter.SiteID != "" {
		addCondition("s.site_id = $%d", filter.SiteID)
	}
	if filter.Status != "" {
		addCondition("s.status = $%d", filter.Status)
	}
	if filter.DateFrom != "" {
		addCondition("s.date >= $%d", filter.DateFrom)
	}
	if filter.DateTo != "" {
		addCondition("s.date <= $%d", filter.DateTo)
	}

	where := strings.Join(conditions, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM attendance_sessions s WHERE ` + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+sessionColumns+`, u.full_name, st.name
		FROM attendance_sessions s
		JOIN users u ON u.id = s.user_id
		LEFT JOIN sites st ON st.id = s.site_id
		WHERE %s
		ORDER BY s.checkin_time DESC
		LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []attendance.Session
	for rows.Next() {
		var s attendance.Session
		err := rows.Scan(
			&s.ID, &s.UserID, &s.Date, &s.SiteID, &s.ShiftID, &s.CheckinType,
			&s.CheckinTime, &s.CheckinLatitude, &s.CheckinLongitude,
			&s.CheckoutTime, &s.CheckoutLatitude, &s.CheckoutLongitude,
			&s.Status, &s.RegularHours, &s.OvertimeHours, &s.BreakHours, &s.TotalHours,
			&s.IsLate, &s.LateMinutes, &s.IsEarlyCheckout, &s.IsOvernight,
			&s.OvertimeMultiplier, &s.AutoCheckout, &s.ManualCheckout,
			&s.ForgotCheckout, &s.OvertimeApproved, &s.CreatedAt, &s.UpdatedAt,
			&s.UserName, &s.SiteName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

// GetStaleOpenSessions implements attendance.SessionRepository.
func (r *sessionRepositoryImpl) GetStaleOpenSessions(ctx context.Context, from time.Time, checkedInBefore time.Time) ([]attendance.Session, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT ` + sessionColumns + `
		FROM attendance_sessions s
		WHERE s.status = $1 AND s.date >= $2 AND s.checkin_time < $3
		ORDER BY s.checkin_time`

	rows, err := q.Query(ctx, query, attendance.StatusCheckedIn, from, checkedInBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to get stale sessions: %w", err)
	}
	defer rows.Close()

	var sessions []attendance.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// AppendEdit implements attendance.SessionRepository.
func (r *sessionRepositoryImpl) AppendEdit(ctx context.Context, edit attendance.SessionEdit) error {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		INSERT INTO attendance_session_edits (session_id, actor_id, action, note)
		VALUES ($1, $2, $3, $4)`

	if _, err := q.Exec(ctx, query, edit.SessionID, edit.ActorID, edit.Action, edit.Note); err != nil {
		return fmt.Errorf("failed to append session edit: %w", err)
	}
	return nil
}

// ListEdits implements attendance.SessionRepository.
func (r *sessionRepositoryImpl) ListEdits(ctx context.Context, sessionID string) ([]attendance.SessionEdit, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT id, session_id, actor_id, action, note, created_at
		FROM attendance_session_edits
		WHERE session_id = $1
		ORDER BY created_at`

	rows, err := q.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session edits: %w", err)
	}
	defer rows.Close()

	var edits []attendance.SessionEdit
	for rows.Next() {
		var e attendance.SessionEdit
		if err := rows.Scan(&e.ID, &e.SessionID, &e.ActorID, &e.Action, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session edit: %w", err)
		}
		edits = append(edits, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return edits, nil
}
