package postgresql_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/database"
)

// schema mirrors the production tables. Text ids with generated UUID
// defaults, all timestamps UTC.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT,
	full_name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'employee',
	allowed_site_ids TEXT[] NOT NULL DEFAULT '{}',
	allow_offsite_checkin BOOLEAN NOT NULL DEFAULT FALSE,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sites (
	id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name TEXT NOT NULL,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	radius_meters DOUBLE PRECISION NOT NULL,
	break_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS site_schedules (
	site_id TEXT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
	weekday INT NOT NULL,
	open_time TEXT NOT NULL,
	close_time TEXT NOT NULL,
	PRIMARY KEY (site_id, weekday)
);

CREATE TABLE IF NOT EXISTS site_shifts (
	id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	site_id TEXT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	grace_minutes INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS holidays (
	id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	date DATE NOT NULL UNIQUE,
	name TEXT NOT NULL,
	is_working_day BOOLEAN NOT NULL DEFAULT FALSE,
	overtime_multipliers JSONB NOT NULL DEFAULT '{}',
	site_ids TEXT[] NOT NULL DEFAULT '{}',
	roles TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS attendance_sessions (
	id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id TEXT NOT NULL REFERENCES users(id),
	date DATE NOT NULL,
	site_id TEXT REFERENCES sites(id),
	shift_id TEXT REFERENCES site_shifts(id),
	checkin_type TEXT NOT NULL,
	checkin_time TIMESTAMPTZ NOT NULL,
	checkin_latitude DOUBLE PRECISION NOT NULL,
	checkin_longitude DOUBLE PRECISION NOT NULL,
	checkout_time TIMESTAMPTZ,
	checkout_latitude DOUBLE PRECISION,
	checkout_longitude DOUBLE PRECISION,
	status TEXT NOT NULL,
	regular_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
	overtime_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
	break_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_late BOOLEAN NOT NULL DEFAULT FALSE,
	late_minutes INT NOT NULL DEFAULT 0,
	is_early_checkout BOOLEAN NOT NULL DEFAULT FALSE,
	is_overnight BOOLEAN NOT NULL DEFAULT FALSE,
	overtime_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1,
	auto_checkout BOOLEAN NOT NULL DEFAULT FALSE,
	manual_checkout BOOLEAN NOT NULL DEFAULT FALSE,
	forgot_checkout BOOLEAN NOT NULL DEFAULT FALSE,
	overtime_approved BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS attendance_session_edits (
	id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	session_id TEXT NOT NULL REFERENCES attendance_sessions(id) ON DELETE CASCADE,
	actor_id TEXT NOT NULL,
	action TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS leave_quota_years (
	id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id TEXT NOT NULL REFERENCES users(id),
	year INT NOT NULL,
	sick_total DOUBLE PRECISION NOT NULL DEFAULT 0,
	sick_used DOUBLE PRECISION NOT NULL DEFAULT 0,
	sick_remaining DOUBLE PRECISION NOT NULL DEFAULT 0,
	personal_total DOUBLE PRECISION NOT NULL DEFAULT 0,
	personal_used DOUBLE PRECISION NOT NULL DEFAULT 0,
	personal_remaining DOUBLE PRECISION NOT NULL DEFAULT 0,
	vacation_total DOUBLE PRECISION NOT NULL DEFAULT 0,
	vacation_used DOUBLE PRECISION NOT NULL DEFAULT 0,
	vacation_remaining DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, year)
);

CREATE TABLE IF NOT EXISTS leave_quota_history (
	id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id TEXT NOT NULL,
	year INT NOT NULL,
	leave_type TEXT NOT NULL,
	total_delta DOUBLE PRECISION NOT NULL DEFAULT 0,
	used_delta DOUBLE PRECISION NOT NULL DEFAULT 0,
	reason TEXT NOT NULL DEFAULT '',
	actor_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS leave_requests (
	id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id TEXT NOT NULL REFERENCES users(id),
	leave_type TEXT NOT NULL,
	start_date DATE NOT NULL,
	end_date DATE NOT NULL,
	total_days DOUBLE PRECISION NOT NULL,
	is_urgent BOOLEAN NOT NULL DEFAULT FALSE,
	urgent_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1,
	actual_days DOUBLE PRECISION NOT NULL,
	status TEXT NOT NULL,
	previous_status TEXT,
	reason TEXT NOT NULL DEFAULT '',
	attachment_url TEXT,
	approved_by TEXT,
	approved_at TIMESTAMPTZ,
	rejected_by TEXT,
	rejected_at TIMESTAMPTZ,
	rejected_reason TEXT,
	cancelled_by TEXT,
	cancelled_at TIMESTAMPTZ,
	cancel_reason TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS leave_carryover_runs (
	id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	from_year INT NOT NULL,
	to_year INT NOT NULL,
	executor_id TEXT NOT NULL,
	total_users INT NOT NULL DEFAULT 0,
	success_count INT NOT NULL DEFAULT 0,
	failed_count INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// newTestDB connects to TEST_DATABASE_URL, ensuring the schema exists and
// starting from empty tables. Tests are skipped when the variable is unset.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	ctx := context.Background()
	_, err = db.Exec(ctx, schema)
	require.NoError(t, err)

	_, err = db.Exec(ctx, `
		TRUNCATE TABLE users, sites, site_schedules, site_shifts, holidays,
			attendance_sessions, attendance_session_edits,
			leave_quota_years, leave_quota_history, leave_requests,
			leave_carryover_runs
		CASCADE`)
	require.NoError(t, err)

	return db
}

// seedUser inserts a minimal active user and returns its id.
func seedUser(t *testing.T, db *database.DB, email string) string {
	t.Helper()

	var id string
	err := db.QueryRow(context.Background(),
		`INSERT INTO users (email, full_name) VALUES ($1, $2) RETURNING id`,
		email, "Test User",
	).Scan(&id)
	require.NoError(t, err)
	return id
}
