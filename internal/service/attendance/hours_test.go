package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/site"
)

func clock(hour, minute int) time.Time {
	return time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC)
}

// Monday 2026-01-05.
func at(day, hour, minute int) time.Time {
	return time.Date(2026, 1, day, hour, minute, 0, 0, time.UTC)
}

func testSite(openH, closeH int, breakHours float64) *site.Site {
	schedule := make(map[time.Weekday]*site.DaySchedule)
	for d := time.Monday; d <= time.Friday; d++ {
		schedule[d] = &site.DaySchedule{Open: clock(openH, 0), Close: clock(closeH, 0)}
	}
	return &site.Site{
		ID:         "site-1",
		Name:       "HQ",
		Schedule:   schedule,
		BreakHours: breakHours,
	}
}

func TestComputeHours_FullDay(t *testing.T) {
	s := testSite(9, 18, 1)

	result := ComputeHours(at(5, 9, 0), at(5, 18, 0), s, nil, false)

	assert.Equal(t, 8.0, result.TotalHours)
	assert.Equal(t, 8.0, result.RegularHours)
	assert.Equal(t, 0.0, result.OvertimeHours)
	assert.Equal(t, 1.0, result.BreakHours)
	assert.False(t, result.IsOvernight)
}

func TestComputeHours_ShortSessionSkipsBreak(t *testing.T) {
	s := testSite(9, 18, 1)

	result := ComputeHours(at(5, 9, 0), at(5, 12, 0), s, nil, false)

	assert.Equal(t, 3.0, result.TotalHours)
	assert.Equal(t, 0.0, result.BreakHours)
}

func TestComputeHours_BreakNeverDropsBelowFourHours(t *testing.T) {
	s := testSite(9, 18, 2)

	// 4.5h worked: only 0.5h of the 2h break fits above the floor.
	result := ComputeHours(at(5, 9, 0), at(5, 13, 30), s, nil, false)

	assert.Equal(t, 4.0, result.TotalHours)
	assert.Equal(t, 0.5, result.BreakHours)
}

func TestComputeHours_LatenessAgainstGrace(t *testing.T) {
	s := testSite(9, 18, 0)
	shift := &site.Shift{ID: "sh-1", Start: clock(9, 0), End: clock(17, 0), GraceMinutes: 15}

	result := ComputeHours(at(5, 9, 20), at(5, 17, 0), s, shift, false)

	assert.True(t, result.IsLate)
	assert.Equal(t, 5, result.LateMinutes)

	withinGrace := ComputeHours(at(5, 9, 10), at(5, 17, 0), s, shift, false)
	assert.False(t, withinGrace.IsLate)
	assert.Equal(t, 0, withinGrace.LateMinutes)
}

func TestComputeHours_EarlyCheckout(t *testing.T) {
	s := testSite(9, 18, 0)
	shift := &site.Shift{ID: "sh-1", Start: clock(9, 0), End: clock(17, 0), GraceMinutes: 15}

	early := ComputeHours(at(5, 9, 0), at(5, 16, 0), s, shift, false)
	assert.True(t, early.IsEarlyCheckout)

	onTime := ComputeHours(at(5, 9, 0), at(5, 16, 50), s, shift, false)
	assert.False(t, onTime.IsEarlyCheckout)
}

func TestComputeHours_OvernightShift(t *testing.T) {
	schedule := map[time.Weekday]*site.DaySchedule{
		time.Monday: {Open: clock(22, 0), Close: clock(6, 0)},
	}
	s := &site.Site{ID: "site-1", Schedule: schedule}
	shift := &site.Shift{ID: "night", Start: clock(22, 0), End: clock(6, 0), GraceMinutes: 10}

	result := ComputeHours(at(5, 22, 0), at(6, 6, 0), s, shift, false)

	assert.True(t, result.IsOvernight)
	assert.Equal(t, 8.0, result.TotalHours)
	assert.False(t, result.IsLate)
	assert.False(t, result.IsEarlyCheckout)
}

func TestComputeHours_CapsAtClosingUnlessApproved(t *testing.T) {
	s := testSite(9, 18, 0)

	capped := ComputeHours(at(5, 9, 0), at(5, 21, 0), s, nil, false)
	assert.Equal(t, 9.0, capped.TotalHours)
	assert.Equal(t, 8.0, capped.RegularHours)
	assert.Equal(t, 1.0, capped.OvertimeHours)
	assert.Equal(t, at(5, 18, 0), capped.EffectiveCheckout)

	approved := ComputeHours(at(5, 9, 0), at(5, 21, 0), s, nil, true)
	assert.Equal(t, 12.0, approved.TotalHours)
	assert.Equal(t, 4.0, approved.OvertimeHours)
	assert.Equal(t, at(5, 21, 0), approved.EffectiveCheckout)
}

func TestComputeHours_ClosedDayNoCap(t *testing.T) {
	s := testSite(9, 18, 0)

	// Saturday has no schedule, so the full span counts.
	result := ComputeHours(at(10, 9, 0), at(10, 21, 0), s, nil, false)

	assert.Equal(t, 12.0, result.TotalHours)
	assert.Equal(t, 4.0, result.OvertimeHours)
}

func TestComputeHours_OffsiteNoCapNoBreak(t *testing.T) {
	result := ComputeHours(at(5, 9, 0), at(5, 20, 0), nil, nil, false)

	assert.Equal(t, 11.0, result.TotalHours)
	assert.Equal(t, 0.0, result.BreakHours)
	assert.Equal(t, 3.0, result.OvertimeHours)
}

func TestComputeHours_CheckoutBeforeCheckin(t *testing.T) {
	result := ComputeHours(at(5, 9, 0), at(5, 8, 0), nil, nil, false)

	assert.Equal(t, 0.0, result.TotalHours)
	assert.Equal(t, at(5, 9, 0), result.EffectiveCheckout)
}

func TestComputeHours_Rounding(t *testing.T) {
	result := ComputeHours(at(5, 9, 0), at(5, 12, 10), nil, nil, false)

	assert.Equal(t, 3.17, result.TotalHours)
}

func TestNeedsOvertimeApproval(t *testing.T) {
	s := testSite(9, 18, 0)

	tests := []struct {
		name     string
		checkout time.Time
		want     bool
	}{
		{"before closing", at(5, 17, 0), false},
		{"at closing", at(5, 18, 0), false},
		{"within threshold", at(5, 19, 0), false},
		{"past threshold", at(5, 19, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsOvertimeApproval(at(5, 9, 0), tt.checkout, s))
		})
	}
}

func TestNeedsOvertimeApproval_ClosedDay(t *testing.T) {
	s := testSite(9, 18, 0)

	// Saturday: no closing time to exceed.
	assert.False(t, NeedsOvertimeApproval(at(10, 9, 0), at(10, 23, 0), s))
}

func TestCapCheckout_OvernightSchedule(t *testing.T) {
	schedule := map[time.Weekday]*site.DaySchedule{
		time.Monday: {Open: clock(22, 0), Close: clock(6, 0)},
	}
	s := &site.Site{ID: "site-1", Schedule: schedule}

	// Closing rolls to Tuesday 06:00 when it precedes opening.
	capped := CapCheckout(at(5, 22, 0), at(6, 8, 0), s)
	assert.Equal(t, at(6, 6, 0), capped)
}
