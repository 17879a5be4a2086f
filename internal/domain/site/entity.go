package site

import (
	"time"
)

// DaySchedule is one weekday's open/close window. A nil DaySchedule on a
// Site means the site is closed that day.
type DaySchedule struct {
	Open  time.Time // only hour/minute are significant
	Close time.Time // may precede Open for overnight sites
}

// Shift is a named working window inside a site's schedule. End may wrap
// past midnight.
type Shift struct {
	ID           string
	SiteID       string
	Name         string
	Start        time.Time // only hour/minute are significant
	End          time.Time
	GraceMinutes int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Site is a geofenced physical location. Read-only to the engine.
type Site struct {
	ID           string
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64

	// Weekly schedule, nil entry = closed that day.
	Schedule map[time.Weekday]*DaySchedule

	// Standard unpaid break per day, in hours.
	BreakHours float64

	Shifts []Shift

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScheduleFor returns the open/close window for the given weekday, or nil
// when the site is closed that day.
func (s *Site) ScheduleFor(day time.Weekday) *DaySchedule {
	if s.Schedule == nil {
		return nil
	}
	return s.Schedule[day]
}

// ShiftByID returns the shift with the given id, or nil.
func (s *Site) ShiftByID(id string) *Shift {
	for i := range s.Shifts {
		if s.Shifts[i].ID == id {
			return &s.Shifts[i]
		}
	}
	return nil
}
