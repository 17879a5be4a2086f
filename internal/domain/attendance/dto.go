package attendance

import (
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type CheckInRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Optional explicit shift choice; required when the resolved site has
	// more than one shift.
	ShiftID *string `json:"shift_id,omitempty"`
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidCoordinate(r.Latitude, r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "location",
			Message: "latitude must be between -90 and 90 and longitude between -180 and 180",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CheckOutRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidCoordinate(r.Latitude, r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "location",
			Message: "latitude must be between -90 and 90 and longitude between -180 and 180",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ManualCheckoutRequest struct {
	SessionID        string  `json:"session_id"`
	CheckoutTime     string  `json:"checkout_time"` // RFC3339
	ApprovedOvertime bool    `json:"approved_overtime"`
	Reason           string  `json:"reason"`
}

func (r *ManualCheckoutRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.SessionID) {
		errs = append(errs, validator.ValidationError{
			Field:   "session_id",
			Message: "session_id is required",
		})
	}

	if _, ok := validator.IsValidDateTime(r.CheckoutTime); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "checkout_time",
			Message: "checkout_time must be a valid RFC3339 timestamp",
		})
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type SessionFilter struct {
	UserID   string
	SiteID   string
	Status   string
	DateFrom string // YYYY-MM-DD
	DateTo   string // YYYY-MM-DD
	Page     int
	Limit    int
}

func (f *SessionFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

// ShiftOption is one candidate shift returned when the resolver defers the
// choice to the caller.
type ShiftOption struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Start        string `json:"start"` // HH:MM
	End          string `json:"end"`
	GraceMinutes int    `json:"grace_minutes"`
}

type SessionResponse struct {
	ID                 string   `json:"id"`
	UserID             string   `json:"user_id"`
	UserName           string   `json:"user_name,omitempty"`
	Date               string   `json:"date"`
	SiteID             *string  `json:"site_id"`
	SiteName           *string  `json:"site_name,omitempty"`
	ShiftID            *string  `json:"shift_id"`
	CheckinType        string   `json:"checkin_type"`
	CheckinTime        string   `json:"checkin_time"`
	CheckoutTime       *string  `json:"checkout_time"`
	Status             string   `json:"status"`
	RegularHours       float64  `json:"regular_hours"`
	OvertimeHours      float64  `json:"overtime_hours"`
	BreakHours         float64  `json:"break_hours"`
	TotalHours         float64  `json:"total_hours"`
	IsLate             bool     `json:"is_late"`
	LateMinutes        int      `json:"late_minutes"`
	IsEarlyCheckout    bool     `json:"is_early_checkout"`
	IsOvernight        bool     `json:"is_overnight"`
	OvertimeMultiplier float64  `json:"overtime_multiplier"`
	AutoCheckout       bool     `json:"auto_checkout"`
	ManualCheckout     bool     `json:"manual_checkout"`
	ForgotCheckout     bool     `json:"forgot_checkout"`
	OvertimeApproved   bool     `json:"overtime_approved"`
}

// CheckInResponse either carries the created session, or the shift
// candidates when the caller must choose one.
type CheckInResponse struct {
	Session                *SessionResponse `json:"session,omitempty"`
	RequiresShiftSelection bool             `json:"requires_shift_selection"`
	ShiftCandidates        []ShiftOption    `json:"shift_candidates,omitempty"`
}

type ListSessionsResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Sessions   []SessionResponse `json:"sessions"`
}

// SweepResult summarizes one abandoned-session sweep pass. Best-effort: a
// failing session is recorded and does not abort the pass.
type SweepResult struct {
	Scanned   int               `json:"scanned"`
	Completed int               `json:"completed"`
	Failed    int               `json:"failed"`
	Errors    map[string]string `json:"errors,omitempty"` // session id -> error
}
