package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/attendance"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/holiday"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/site"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/user"
)

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTx) WithTxRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeSessionRepo struct {
	sessions map[string]attendance.Session
	edits    []attendance.SessionEdit
	nextID   int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]attendance.Session{}}
}

func (f *fakeSessionRepo) add(s attendance.Session) attendance.Session {
	f.nextID++
	s.ID = string(rune('a' + f.nextID - 1))
	f.sessions[s.ID] = s
	return s
}

func (f *fakeSessionRepo) Create(_ context.Context, session attendance.Session) (attendance.Session, error) {
	return f.add(session), nil
}

func (f *fakeSessionRepo) GetByID(_ context.Context, id string) (attendance.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return attendance.Session{}, attendance.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessionRepo) GetOpenSession(_ context.Context, userID string, from, to time.Time) (*attendance.Session, error) {
	for _, s := range f.sessions {
		if s.UserID == userID && s.Status == attendance.StatusCheckedIn && !s.Date.Before(from) && !s.Date.After(to) {
			session := s
			return &session, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionRepo) GetOpenSessionForUpdate(ctx context.Context, userID string, from, to time.Time) (*attendance.Session, error) {
	return f.GetOpenSession(ctx, userID, from, to)
}

func (f *fakeSessionRepo) Update(_ context.Context, session attendance.Session) error {
	if _, ok := f.sessions[session.ID]; !ok {
		return attendance.ErrSessionNotFound
	}
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionRepo) List(_ context.Context, _ attendance.SessionFilter) ([]attendance.Session, int64, error) {
	return nil, 0, nil
}

func (f *fakeSessionRepo) GetStaleOpenSessions(_ context.Context, from, checkedInBefore time.Time) ([]attendance.Session, error) {
	var stale []attendance.Session
	for _, s := range f.sessions {
		if s.Status == attendance.StatusCheckedIn && !s.Date.Before(from) && s.CheckinTime.Before(checkedInBefore) {
			stale = append(stale, s)
		}
	}
	return stale, nil
}

func (f *fakeSessionRepo) AppendEdit(_ context.Context, edit attendance.SessionEdit) error {
	f.edits = append(f.edits, edit)
	return nil
}

func (f *fakeSessionRepo) ListEdits(_ context.Context, sessionID string) ([]attendance.SessionEdit, error) {
	var edits []attendance.SessionEdit
	for _, e := range f.edits {
		if e.SessionID == sessionID {
			edits = append(edits, e)
		}
	}
	return edits, nil
}

type fakeSiteRepo struct {
	sites map[string]site.Site
}

func (f *fakeSiteRepo) GetByID(_ context.Context, id string) (site.Site, error) {
	s, ok := f.sites[id]
	if !ok {
		return site.Site{}, site.ErrSiteNotFound
	}
	return s, nil
}

func (f *fakeSiteRepo) GetByIDs(_ context.Context, ids []string) ([]site.Site, error) {
	var out []site.Site
	for _, id := range ids {
		if s, ok := f.sites[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSiteRepo) List(_ context.Context) ([]site.Site, error) {
	var out []site.Site
	for _, s := range f.sites {
		out = append(out, s)
	}
	return out, nil
}

type emptyHolidayRepo struct{}

func (emptyHolidayRepo) GetByDate(_ context.Context, _ time.Time) (*holiday.Holiday, error) {
	return nil, nil
}

func (emptyHolidayRepo) GetByDateRange(_ context.Context, _, _ time.Time) ([]holiday.Holiday, error) {
	return nil, nil
}

type singleUserRepo struct{}

func (singleUserRepo) GetByID(_ context.Context, id string) (user.User, error) {
	return user.User{ID: id, Role: user.RoleEmployee, IsActive: true}, nil
}

func (singleUserRepo) GetByEmail(_ context.Context, _ string) (user.User, error) {
	return user.User{}, user.ErrUserNotFound
}

func (singleUserRepo) ListActiveIDs(_ context.Context) ([]string, error) {
	return nil, nil
}

type sweepFixture struct {
	svc      attendance.SessionService
	sessions *fakeSessionRepo
	sites    *fakeSiteRepo
}

func newSweepFixture(staleAfter time.Duration) sweepFixture {
	sessions := newFakeSessionRepo()
	sites := &fakeSiteRepo{sites: map[string]site.Site{}}
	return sweepFixture{
		svc:      NewSessionService(passthroughTx{}, sessions, sites, emptyHolidayRepo{}, singleUserRepo{}, staleAfter),
		sessions: sessions,
		sites:    sites,
	}
}

func openSessionAt(userID string, checkin time.Time) attendance.Session {
	return attendance.Session{
		UserID:             userID,
		Date:               checkin.Truncate(24 * time.Hour),
		CheckinType:        attendance.CheckinOffsite,
		CheckinTime:        checkin,
		Status:             attendance.StatusCheckedIn,
		OvertimeMultiplier: 1,
	}
}

func TestSweep_ClosesAbandonedSessions(t *testing.T) {
	f := newSweepFixture(12 * time.Hour)
	now := time.Now().UTC()

	stale := f.sessions.add(openSessionAt("u-1", now.Add(-14*time.Hour)))
	fresh := f.sessions.add(openSessionAt("u-2", now.Add(-1*time.Hour)))

	result, err := f.svc.SweepAbandonedSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Completed)
	assert.Equal(t, 0, result.Failed)
	assert.Nil(t, result.Errors)

	closed := f.sessions.sessions[stale.ID]
	assert.Equal(t, attendance.StatusCompleted, closed.Status)
	assert.True(t, closed.AutoCheckout)
	assert.True(t, closed.ForgotCheckout)
	require.NotNil(t, closed.CheckoutTime)
	assert.True(t, closed.CheckoutTime.After(closed.CheckinTime))

	// The close is recorded in the edit history under the system actor.
	edits, err := f.sessions.ListEdits(context.Background(), stale.ID)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, attendance.SystemActor, edits[0].ActorID)
	assert.Equal(t, "auto_checkout", edits[0].Action)

	assert.Equal(t, attendance.StatusCheckedIn, f.sessions.sessions[fresh.ID].Status)
}

func TestSweep_RerunFindsNothing(t *testing.T) {
	f := newSweepFixture(12 * time.Hour)
	now := time.Now().UTC()

	f.sessions.add(openSessionAt("u-1", now.Add(-14*time.Hour)))

	first, err := f.svc.SweepAbandonedSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Completed)

	second, err := f.svc.SweepAbandonedSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Scanned)
	assert.Equal(t, 0, second.Completed)
}

func TestSweep_PerSessionFailureDoesNotAbortBatch(t *testing.T) {
	f := newSweepFixture(12 * time.Hour)
	now := time.Now().UTC()

	missingSite := "gone"
	broken := openSessionAt("u-1", now.Add(-14*time.Hour))
	broken.SiteID = &missingSite
	brokenStored := f.sessions.add(broken)
	healthy := f.sessions.add(openSessionAt("u-2", now.Add(-14*time.Hour)))

	result, err := f.svc.SweepAbandonedSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 1, result.Completed)
	assert.Equal(t, 1, result.Failed)
	require.Contains(t, result.Errors, brokenStored.ID)

	assert.Equal(t, attendance.StatusCheckedIn, f.sessions.sessions[brokenStored.ID].Status)
	assert.Equal(t, attendance.StatusCompleted, f.sessions.sessions[healthy.ID].Status)
}

func TestDefaultCheckoutTime(t *testing.T) {
	dayShift := &site.Shift{Start: clock(9, 0), End: clock(17, 0)}
	nightShift := &site.Shift{Start: clock(22, 0), End: clock(6, 0)}

	t.Run("shift end on the check-in date", func(t *testing.T) {
		s := attendance.Session{CheckinTime: at(5, 9, 12)}
		assert.Equal(t, at(5, 17, 0), defaultCheckoutTime(&s, dayShift))
	})

	t.Run("overnight shift ends next day", func(t *testing.T) {
		s := attendance.Session{CheckinTime: at(5, 22, 5)}
		assert.Equal(t, at(6, 6, 0), defaultCheckoutTime(&s, nightShift))
	})

	t.Run("no shift falls back to 18:00", func(t *testing.T) {
		s := attendance.Session{CheckinTime: at(5, 8, 30)}
		assert.Equal(t, at(5, 18, 0), defaultCheckoutTime(&s, nil))
	})

	t.Run("fallback before check-in becomes check-in plus eight hours", func(t *testing.T) {
		s := attendance.Session{CheckinTime: at(5, 19, 0)}
		assert.Equal(t, at(6, 3, 0), defaultCheckoutTime(&s, nil))
	})

	t.Run("shift end before check-in becomes check-in plus eight hours", func(t *testing.T) {
		s := attendance.Session{CheckinTime: at(5, 18, 0)}
		assert.Equal(t, at(6, 2, 0), defaultCheckoutTime(&s, dayShift))
	})
}
