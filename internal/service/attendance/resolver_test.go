package attendance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/attendance"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/site"
)

// Roughly central Jakarta; 0.001 degrees of latitude is about 111 m.
const (
	baseLat = -6.2000
	baseLon = 106.8167
)

func geofence(id string, lat, lon, radius float64, shifts ...site.Shift) site.Site {
	return site.Site{
		ID:           id,
		Name:         "Site " + id,
		Latitude:     lat,
		Longitude:    lon,
		RadiusMeters: radius,
		Shifts:       shifts,
	}
}

func TestResolveCheckin_NearestInRangeWins(t *testing.T) {
	sites := []site.Site{
		geofence("far", baseLat+0.002, baseLon, 300),  // ~222 m away
		geofence("near", baseLat+0.001, baseLon, 300), // ~111 m away
	}

	res, err := ResolveCheckin(baseLat, baseLon, sites, false, nil)

	require.NoError(t, err)
	require.NotNil(t, res.Site)
	assert.Equal(t, "near", res.Site.ID)
	assert.Equal(t, attendance.CheckinOnsite, res.CheckinType)
	assert.InDelta(t, 111, res.DistanceMeters, 2)
}

func TestResolveCheckin_EqualDistanceKeepsCatalogOrder(t *testing.T) {
	sites := []site.Site{
		geofence("first", baseLat+0.001, baseLon, 300),
		geofence("second", baseLat+0.001, baseLon, 300),
	}

	res, err := ResolveCheckin(baseLat, baseLon, sites, false, nil)

	require.NoError(t, err)
	require.NotNil(t, res.Site)
	assert.Equal(t, "first", res.Site.ID)
}

func TestResolveCheckin_OutOfRangeOffsiteAllowed(t *testing.T) {
	sites := []site.Site{
		geofence("hq", baseLat+0.01, baseLon, 100), // ~1.1 km away
	}

	res, err := ResolveCheckin(baseLat, baseLon, sites, true, nil)

	require.NoError(t, err)
	assert.Nil(t, res.Site)
	assert.Equal(t, attendance.CheckinOffsite, res.CheckinType)
	assert.Greater(t, res.DistanceMeters, 1000.0)
}

func TestResolveCheckin_OutOfRangeOffsiteDenied(t *testing.T) {
	sites := []site.Site{
		geofence("hq", baseLat+0.01, baseLon, 100),
	}

	_, err := ResolveCheckin(baseLat, baseLon, sites, false, nil)

	var oor *attendance.LocationOutOfRangeError
	require.True(t, errors.As(err, &oor))
	assert.Equal(t, "hq", oor.NearestSiteID)
	assert.Greater(t, oor.DistanceMeters, 1000.0)
}

func TestResolveCheckin_NoAllowedSites(t *testing.T) {
	_, err := ResolveCheckin(baseLat, baseLon, nil, false, nil)
	assert.ErrorIs(t, err, attendance.ErrNoSiteAllowed)

	res, err := ResolveCheckin(baseLat, baseLon, nil, true, nil)
	require.NoError(t, err)
	assert.Equal(t, attendance.CheckinOffsite, res.CheckinType)
}

func TestResolveCheckin_ShiftSelection(t *testing.T) {
	morning := site.Shift{ID: "morning", Name: "Morning"}
	evening := site.Shift{ID: "evening", Name: "Evening"}

	t.Run("no shifts", func(t *testing.T) {
		sites := []site.Site{geofence("hq", baseLat, baseLon, 200)}

		res, err := ResolveCheckin(baseLat, baseLon, sites, false, nil)

		require.NoError(t, err)
		assert.Nil(t, res.Shift)
		assert.False(t, res.RequiresShiftSelection())
	})

	t.Run("single shift auto-selected", func(t *testing.T) {
		sites := []site.Site{geofence("hq", baseLat, baseLon, 200, morning)}

		res, err := ResolveCheckin(baseLat, baseLon, sites, false, nil)

		require.NoError(t, err)
		require.NotNil(t, res.Shift)
		assert.Equal(t, "morning", res.Shift.ID)
	})

	t.Run("multiple shifts deferred", func(t *testing.T) {
		sites := []site.Site{geofence("hq", baseLat, baseLon, 200, morning, evening)}

		res, err := ResolveCheckin(baseLat, baseLon, sites, false, nil)

		require.NoError(t, err)
		assert.Nil(t, res.Shift)
		assert.True(t, res.RequiresShiftSelection())
		assert.Len(t, res.ShiftCandidates, 2)
	})

	t.Run("explicit choice honored", func(t *testing.T) {
		sites := []site.Site{geofence("hq", baseLat, baseLon, 200, morning, evening)}
		choice := "evening"

		res, err := ResolveCheckin(baseLat, baseLon, sites, false, &choice)

		require.NoError(t, err)
		require.NotNil(t, res.Shift)
		assert.Equal(t, "evening", res.Shift.ID)
		assert.False(t, res.RequiresShiftSelection())
	})

	t.Run("unknown shift id rejected", func(t *testing.T) {
		sites := []site.Site{geofence("hq", baseLat, baseLon, 200, morning)}
		choice := "night"

		_, err := ResolveCheckin(baseLat, baseLon, sites, false, &choice)

		assert.ErrorIs(t, err, site.ErrShiftNotFound)
	})
}
