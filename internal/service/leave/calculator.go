package leave

import (
	"math"
	"time"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/leave"
)

// inclusiveDays counts calendar days from start to end, both ends included.
// Weekends count.
func inclusiveDays(start, end time.Time) float64 {
	return float64(int(end.Sub(start).Hours()/24)) + 1
}

// insideNoticeWindow reports whether start violates the policy's advance
// notice requirement as of today. Types with zero required notice never do.
func insideNoticeWindow(policy leave.Policy, start, today time.Time) bool {
	if policy.RequiredNoticeDays == 0 {
		return false
	}
	return start.Before(today.AddDate(0, 0, policy.RequiredNoticeDays))
}

// carryAmount computes how many days one type carries over: the percentage
// of the positive remaining balance, floored to whole days, then capped.
func carryAmount(remaining float64, rule leave.CarryOverRule) float64 {
	if !rule.Enabled || remaining <= 0 {
		return 0
	}
	amount := math.Floor(remaining * rule.Percentage / 100)
	if rule.MaxDays != nil && amount > *rule.MaxDays {
		amount = *rule.MaxDays
	}
	if amount < 0 {
		return 0
	}
	return amount
}
