package attendance

import (
	"math"
	"time"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/site"
)

// overtimeApprovalThreshold is how far past closing an uncapped checkout may
// run before the session needs review.
const overtimeApprovalThreshold = 60 * time.Minute

// HoursResult holds the worked figures for one session. All hour values are
// rounded to 2 decimals.
type HoursResult struct {
	TotalHours    float64
	RegularHours  float64
	OvertimeHours float64
	BreakHours    float64

	IsLate          bool
	LateMinutes     int
	IsEarlyCheckout bool
	IsOvernight     bool

	// The checkout instant the figures were computed from.
	EffectiveCheckout time.Time
}

// anchorClock maps the hour/minute of clock onto base's calendar date.
func anchorClock(base, clock time.Time) time.Time {
	return time.Date(base.Year(), base.Month(), base.Day(),
		clock.Hour(), clock.Minute(), 0, 0, base.Location())
}

// closingInstant returns the site's closing instant for checkin's day.
// When closing precedes opening the site runs overnight and the closing
// instant falls on the next day. ok is false when the site is closed that
// day.
func closingInstant(checkin time.Time, s *site.Site) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	sched := s.ScheduleFor(checkin.Weekday())
	if sched == nil {
		return time.Time{}, false
	}

	open := anchorClock(checkin, sched.Open)
	close := anchorClock(checkin, sched.Close)
	if close.Before(open) {
		close = close.Add(24 * time.Hour)
	}
	return close, true
}

// CapCheckout caps checkout at the site's closing instant for checkin's
// weekday. Checkout passes through unchanged for offsite sessions and on
// days the site has no schedule.
func CapCheckout(checkin, checkout time.Time, s *site.Site) time.Time {
	closing, ok := closingInstant(checkin, s)
	if !ok {
		return checkout
	}
	if checkout.After(closing) {
		return closing
	}
	return checkout
}

// NeedsOvertimeApproval reports whether the uncapped checkout exceeds the
// site's closing time by more than the approval threshold. This flag, not
// the capped figures, decides whether a session needs review.
func NeedsOvertimeApproval(checkin, checkout time.Time, s *site.Site) bool {
	closing, ok := closingInstant(checkin, s)
	if !ok {
		return false
	}
	return checkout.Sub(closing) > overtimeApprovalThreshold
}

// ComputeHours derives the worked figures for a session. Unless overtime is
// approved, the checkout is capped at the site's closing time; the true
// overtime only enters the numbers once recomputed with approvedOvertime
// set.
func ComputeHours(checkin, checkout time.Time, s *site.Site, shift *site.Shift, approvedOvertime bool) HoursResult {
	effective := checkout
	if !approvedOvertime {
		effective = CapCheckout(checkin, checkout, s)
	}
	if effective.Before(checkin) {
		effective = checkin
	}

	result := HoursResult{EffectiveCheckout: effective}

	totalHours := effective.Sub(checkin).Hours()

	ciY, ciM, ciD := checkin.Date()
	coY, coM, coD := effective.Date()
	result.IsOvernight = ciY != coY || ciM != coM || ciD != coD

	if shift != nil {
		shiftStart := anchorClock(checkin, shift.Start)
		lateBy := int(checkin.Sub(shiftStart).Minutes()) - shift.GraceMinutes
		if lateBy > 0 {
			result.IsLate = true
			result.LateMinutes = lateBy
		}

		shiftEnd := anchorClock(checkin, shift.End)
		if shiftEnd.Before(shiftStart) {
			shiftEnd = shiftEnd.Add(24 * time.Hour)
		}
		if shiftEnd.Sub(effective).Minutes() > float64(shift.GraceMinutes) {
			result.IsEarlyCheckout = true
		}
	}

	// Unpaid break is deducted once a session runs past 4 hours, never
	// below the 4-hour floor.
	if totalHours > 4 && s != nil && s.BreakHours > 0 {
		deduct := math.Min(s.BreakHours, totalHours-4)
		result.BreakHours = round2(deduct)
		totalHours -= deduct
	}

	result.TotalHours = round2(totalHours)
	result.RegularHours = round2(math.Min(totalHours, 8))
	result.OvertimeHours = round2(math.Max(0, totalHours-8))

	return result
}

// round2 rounds to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
