package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/attendance"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/auth"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/leave"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/site"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/user"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/database"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var outOfRange *attendance.LocationOutOfRangeError
	if errors.As(err, &outOfRange) {
		BadRequest(w, "Location is outside every allowed geofence", map[string]string{
			"nearest_site_id":   outOfRange.NearestSiteID,
			"nearest_site_name": outOfRange.NearestSiteName,
			"distance_meters":   fmt.Sprintf("%.0f", outOfRange.DistanceMeters),
		})
		return
	}

	var insufficientQuota *leave.InsufficientQuotaError
	if errors.As(err, &insufficientQuota) {
		ConflictWithDetails(w, "Insufficient leave quota", map[string]string{
			"remaining": fmt.Sprintf("%g", insufficientQuota.Remaining),
			"requested": fmt.Sprintf("%g", insufficientQuota.Requested),
		})
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid token")
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrPermissionDenied):
		Forbidden(w, "Permission denied")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		Conflict(w, "An active session already exists")
	case errors.Is(err, attendance.ErrNoActiveSession):
		NotFound(w, "No active session to check out")
	case errors.Is(err, attendance.ErrSessionNotFound):
		NotFound(w, "Session not found")
	case errors.Is(err, attendance.ErrSessionNotPending):
		Conflict(w, "Session is not pending overtime approval")
	case errors.Is(err, attendance.ErrSessionNotCheckedIn):
		Conflict(w, "Session is not open")
	case errors.Is(err, attendance.ErrNoSiteAllowed):
		Forbidden(w, "No allowed check-in site and offsite check-in is disabled")
	case errors.Is(err, site.ErrSiteNotFound):
		NotFound(w, "Site not found")
	case errors.Is(err, site.ErrShiftNotFound):
		NotFound(w, "Shift not found")

	// Leave domain errors
	case errors.Is(err, leave.ErrRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrAlreadyProcessed):
		Conflict(w, "Leave request already processed")
	case errors.Is(err, leave.ErrQuotaNotFound):
		NotFound(w, "Leave quota not found")
	case errors.Is(err, leave.ErrUrgentConfirmationRequired):
		Conflict(w, "Start date is inside the notice window; resubmit with is_urgent to proceed at the urgent rate")

	case errors.Is(err, database.ErrTxConflict):
		Conflict(w, "Operation conflicted with a concurrent request, please retry")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
