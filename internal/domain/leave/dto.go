package leave

import (
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/validator"
)

// ========================================
// LEAVE DTOs
// ========================================

type SubmitRequest struct {
	Type          string  `json:"type"`
	StartDate     string  `json:"start_date"` // YYYY-MM-DD
	EndDate       string  `json:"end_date"`
	Reason        string  `json:"reason"`
	IsUrgent      bool    `json:"is_urgent"`
	AttachmentURL *string `json:"attachment_url,omitempty"`
}

func (r *SubmitRequest) Validate() error {
	var errs validator.ValidationErrors

	if !LeaveType(r.Type).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of sick, personal, vacation",
		})
	}

	start, okStart := validator.IsValidDate(r.StartDate)
	if !okStart {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be a valid YYYY-MM-DD date",
		})
	}

	end, okEnd := validator.IsValidDate(r.EndDate)
	if !okEnd {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be a valid YYYY-MM-DD date",
		})
	}

	if okStart && okEnd && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not precede start_date",
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

type RejectRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

func (r *RejectRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "rejection reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CancelApprovedRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

func (r *CancelApprovedRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "cancellation reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type SetQuotaRequest struct {
	UserID   string  `json:"user_id"`
	Year     int     `json:"year"`
	Type     string  `json:"type"`
	NewTotal float64 `json:"new_total"`
	Reason   string  `json:"reason"`
}

func (r *SetQuotaRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	if r.Year < 2000 || r.Year > 2200 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year is out of range",
		})
	}

	if !LeaveType(r.Type).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of sick, personal, vacation",
		})
	}

	if r.NewTotal < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "new_total",
			Message: "new_total must not be negative",
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

type CarryOverRuleInput struct {
	Enabled    bool     `json:"enabled"`
	MaxDays    *float64 `json:"max_days,omitempty"` // nil = unlimited
	Percentage float64  `json:"percentage"`
}

type RunCarryOverRequest struct {
	FromYear int                           `json:"from_year"`
	ToYear   int                           `json:"to_year"`
	Rules    map[string]CarryOverRuleInput `json:"rules"`
	// Optional explicit user list; all active users when empty.
	UserIDs []string `json:"user_ids,omitempty"`
}

func (r *RunCarryOverRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.FromYear < 2000 || r.ToYear < 2000 {
		errs = append(errs, validator.ValidationError{
			Field:   "from_year",
			Message: "years are out of range",
		})
	}

	if r.ToYear != r.FromYear+1 {
		errs = append(errs, validator.ValidationError{
			Field:   "to_year",
			Message: "to_year must be the year after from_year",
		})
	}

	for name, rule := range r.Rules {
		if !LeaveType(name).Valid() {
			errs = append(errs, validator.ValidationError{
				Field:   "rules",
				Message: "unknown leave type: " + name,
			})
		}
		if rule.Percentage < 0 || rule.Percentage > 100 {
			errs = append(errs, validator.ValidationError{
				Field:   "rules." + name + ".percentage",
				Message: "percentage must be between 0 and 100",
			})
		}
		if rule.MaxDays != nil && *rule.MaxDays < 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "rules." + name + ".max_days",
				Message: "max_days must not be negative",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type BalanceResponse struct {
	Total     float64 `json:"total"`
	Used      float64 `json:"used"`
	Remaining float64 `json:"remaining"`
}

type QuotaYearResponse struct {
	UserID   string          `json:"user_id"`
	Year     int             `json:"year"`
	Sick     BalanceResponse `json:"sick"`
	Personal BalanceResponse `json:"personal"`
	Vacation BalanceResponse `json:"vacation"`
	// True when this read initialized the all-zero sentinel row.
	Initialized bool `json:"initialized,omitempty"`
}

type RequestResponse struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	UserName         string  `json:"user_name,omitempty"`
	Type             string  `json:"type"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	TotalDays        float64 `json:"total_days"`
	IsUrgent         bool    `json:"is_urgent"`
	UrgentMultiplier float64 `json:"urgent_multiplier"`
	ActualDays       float64 `json:"actual_days"`
	Status           string  `json:"status"`
	PreviousStatus   *string `json:"previous_status,omitempty"`
	Reason           string  `json:"reason"`
	AttachmentURL    *string `json:"attachment_url,omitempty"`
	RejectedReason   *string `json:"rejected_reason,omitempty"`
	CancelReason     *string `json:"cancel_reason,omitempty"`
}
