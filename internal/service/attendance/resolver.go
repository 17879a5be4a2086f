package attendance

import (
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/attendance"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/site"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/geo"
)

// Resolution is the outcome of classifying a check-in event.
type Resolution struct {
	// Nil for offsite check-ins.
	Site           *site.Site
	DistanceMeters float64
	CheckinType    attendance.CheckinType

	// The selected shift, nil when the site tracks no shifts or the choice
	// is deferred.
	Shift *site.Shift

	// Populated when the site has several shifts and the caller supplied
	// none: the resolver never guesses, the caller must pick.
	ShiftCandidates []site.Shift
}

// RequiresShiftSelection reports whether the caller must resubmit with an
// explicit shift choice.
func (r *Resolution) RequiresShiftSelection() bool {
	return len(r.ShiftCandidates) > 0
}

// ResolveCheckin classifies coordinates against the user's allowed sites.
// The primary site is the nearest in-range one; ties break on smaller
// distance, then catalog order. Outside every geofence the check-in is
// offsite only when allowOffsite is set.
func ResolveCheckin(lat, lon float64, sites []site.Site, allowOffsite bool, shiftID *string) (Resolution, error) {
	if len(sites) == 0 {
		if allowOffsite {
			return Resolution{CheckinType: attendance.CheckinOffsite}, nil
		}
		return Resolution{}, attendance.ErrNoSiteAllowed
	}

	var (
		primary     *site.Site
		primaryDist float64
		nearest     *site.Site
		nearestDist float64
	)

	for i := range sites {
		s := &sites[i]
		dist := geo.HaversineDistance(lat, lon, s.Latitude, s.Longitude)

		if nearest == nil || dist < nearestDist {
			nearest = s
			nearestDist = dist
		}

		if dist > s.RadiusMeters {
			continue
		}
		if primary == nil || dist < primaryDist {
			primary = s
			primaryDist = dist
		}
	}

	if primary == nil {
		if allowOffsite {
			return Resolution{
				CheckinType:    attendance.CheckinOffsite,
				DistanceMeters: nearestDist,
			}, nil
		}
		return Resolution{}, &attendance.LocationOutOfRangeError{
			NearestSiteID:   nearest.ID,
			NearestSiteName: nearest.Name,
			DistanceMeters:  nearestDist,
		}
	}

	res := Resolution{
		Site:           primary,
		DistanceMeters: primaryDist,
		CheckinType:    attendance.CheckinOnsite,
	}

	if shiftID != nil {
		shift := primary.ShiftByID(*shiftID)
		if shift == nil {
			return Resolution{}, site.ErrShiftNotFound
		}
		res.Shift = shift
		return res, nil
	}

	switch len(primary.Shifts) {
	case 0:
		// no shift tracking at this site
	case 1:
		res.Shift = &primary.Shifts[0]
	default:
		res.ShiftCandidates = primary.Shifts
	}

	return res, nil
}
