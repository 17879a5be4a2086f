package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	// Check-in errors
	ErrAlreadyCheckedIn = errors.New("you already have an active session")
	ErrNoSiteAllowed    = errors.New("no sites are assigned to this user")

	// Check-out errors
	ErrNoActiveSession = errors.New("no active session found")

	// General errors
	ErrSessionNotFound     = errors.New("attendance session not found")
	ErrSessionNotPending   = errors.New("session is not waiting for overtime approval")
	ErrSessionNotCheckedIn = errors.New("session is no longer checked in")
)

// LocationOutOfRangeError is returned when the user is outside every allowed
// site's geofence and offsite check-in is not permitted. It carries the
// nearest site for user feedback.
type LocationOutOfRangeError struct {
	NearestSiteID   string
	NearestSiteName string
	DistanceMeters  float64
}

func (e *LocationOutOfRangeError) Error() string {
	return fmt.Sprintf("outside the allowed radius: nearest site %s is %.0fm away", e.NearestSiteName, e.DistanceMeters)
}
