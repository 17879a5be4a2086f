package attendance

import (
	"time"
)

type SessionStatus string

const (
	StatusCheckedIn       SessionStatus = "checked_in"
	StatusCompleted       SessionStatus = "completed"
	StatusPendingApproval SessionStatus = "pending_approval"
)

type CheckinType string

const (
	CheckinOnsite  CheckinType = "onsite"
	CheckinOffsite CheckinType = "offsite"
)

// Session is one check-in-to-check-out attendance record. Created on
// check-in, mutated only by check-out, the abandoned-session sweep, or a
// privileged manual checkout. Never deleted.
type Session struct {
	ID     string
	UserID string

	// Check-in working day, used as the record key together with the id.
	Date time.Time

	SiteID      *string // nil for offsite check-ins
	ShiftID     *string
	CheckinType CheckinType

	CheckinTime      time.Time
	CheckinLatitude  float64
	CheckinLongitude float64

	CheckoutTime      *time.Time
	CheckoutLatitude  *float64
	CheckoutLongitude *float64

	Status SessionStatus

	RegularHours  float64
	OvertimeHours float64
	BreakHours    float64
	TotalHours    float64

	IsLate          bool
	LateMinutes     int
	IsEarlyCheckout bool
	IsOvernight     bool

	// Holiday calendar multiplier applied to overtime, 1 on ordinary days.
	OvertimeMultiplier float64

	AutoCheckout     bool
	ManualCheckout   bool
	ForgotCheckout   bool
	OvertimeApproved bool

	CreatedAt time.Time
	UpdatedAt time.Time

	// DTO / Join
	UserName *string
	SiteName *string
}

// SessionEdit is one append-only edit-history entry for a session.
type SessionEdit struct {
	ID        string
	SessionID string
	ActorID   string // "system" for sweep entries
	Action    string
	Note      string
	CreatedAt time.Time
}

const SystemActor = "system"
