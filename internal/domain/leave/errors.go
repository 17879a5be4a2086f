package leave

import (
	"errors"
	"fmt"
)

var (
	ErrRequestNotFound  = errors.New("leave request not found")
	ErrAlreadyProcessed = errors.New("leave request already processed")
	ErrQuotaNotFound    = errors.New("leave quota not found")

	// ErrUrgentConfirmationRequired is returned when a request inside the
	// type's notice window is submitted without the urgent flag: the caller
	// must warn the user and resubmit with is_urgent=true confirmed.
	ErrUrgentConfirmationRequired = errors.New("request is inside the advance-notice window and will consume quota at the urgent multiplier; resubmit with is_urgent confirmed")
)

// InsufficientQuotaError carries the remaining balance and the requested
// amount for user feedback.
type InsufficientQuotaError struct {
	Remaining float64
	Requested float64
}

func (e *InsufficientQuotaError) Error() string {
	return fmt.Sprintf("insufficient leave quota: %.1f day(s) remaining, %.1f requested", e.Remaining, e.Requested)
}
