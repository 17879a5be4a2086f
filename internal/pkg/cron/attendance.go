package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/attendance"
)

// AttendanceJobs wires the abandoned-session sweep onto the scheduler. The
// sweep itself lives in the session service; re-running it is a no-op for
// already-completed sessions.
type AttendanceJobs struct {
	sessionService attendance.SessionService
	interval       time.Duration
}

func NewAttendanceJobs(sessionService attendance.SessionService, interval time.Duration) *AttendanceJobs {
	return &AttendanceJobs{
		sessionService: sessionService,
		interval:       interval,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("sweep_abandoned_sessions", j.interval, j.SweepAbandonedSessions)
}

func (j *AttendanceJobs) SweepAbandonedSessions(ctx context.Context) error {
	result, err := j.sessionService.SweepAbandonedSessions(ctx)
	if err != nil {
		return err
	}

	if result.Scanned == 0 {
		slog.Debug("Cron: no abandoned sessions found")
		return nil
	}

	slog.Info("Cron: swept abandoned sessions",
		"scanned", result.Scanned,
		"completed", result.Completed,
		"failed", result.Failed,
	)
	return nil
}
