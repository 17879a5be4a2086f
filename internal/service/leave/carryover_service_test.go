package leave

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/leave"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/user"
)

type fakeRunRepo struct {
	runs []leave.CarryOverRun
}

func (f *fakeRunRepo) RecordRun(_ context.Context, run leave.CarryOverRun) (leave.CarryOverRun, error) {
	run.CreatedAt = time.Now().UTC()
	f.runs = append(f.runs, run)
	return run, nil
}

func (f *fakeRunRepo) GetLastRun(_ context.Context, fromYear, toYear int) (*leave.CarryOverRun, error) {
	for i := len(f.runs) - 1; i >= 0; i-- {
		if f.runs[i].FromYear == fromYear && f.runs[i].ToYear == toYear {
			run := f.runs[i]
			return &run, nil
		}
	}
	return nil, nil
}

type fixedUserRepo struct {
	activeIDs []string
}

func (f *fixedUserRepo) GetByID(_ context.Context, id string) (user.User, error) {
	return user.User{ID: id, IsActive: true}, nil
}

func (f *fixedUserRepo) GetByEmail(_ context.Context, _ string) (user.User, error) {
	return user.User{}, user.ErrUserNotFound
}

func (f *fixedUserRepo) ListActiveIDs(_ context.Context) ([]string, error) {
	return f.activeIDs, nil
}

type carryOverFixture struct {
	svc    leave.CarryOverService
	quotas *fakeQuotaRepo
	runs   *fakeRunRepo
}

func newCarryOverFixture(activeIDs ...string) carryOverFixture {
	quotas := newFakeQuotaRepo()
	runs := &fakeRunRepo{}
	return carryOverFixture{
		svc:    NewCarryOverService(passthroughTx{}, quotas, runs, &fixedUserRepo{activeIDs: activeIDs}),
		quotas: quotas,
		runs:   runs,
	}
}

func (f carryOverFixture) grantVacation(userID string, year int, total float64) {
	balance := leave.Balance{Total: total}
	balance.Recalc()
	f.quotas.quotas[quotaKey(userID, year)] = leave.QuotaYear{
		ID:       quotaKey(userID, year),
		UserID:   userID,
		Year:     year,
		Vacation: balance,
	}
}

func halfCappedAtFour() leave.RunCarryOverRequest {
	cap := 4.0
	return leave.RunCarryOverRequest{
		FromYear: 2026,
		ToYear:   2027,
		Rules: map[string]leave.CarryOverRuleInput{
			"vacation": {Enabled: true, Percentage: 50, MaxDays: &cap},
		},
	}
}

func TestCarryOver_AddsCappedAmountToNextYear(t *testing.T) {
	f := newCarryOverFixture("u-1")
	adminCtx := authedContext(t, "admin-1", user.RoleAdmin)

	f.grantVacation("u-1", 2026, 10)

	summary, err := f.svc.Run(adminCtx, halfCappedAtFour())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalUsers)
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 0, summary.FailedCount)
	assert.False(t, summary.PreviouslyRun)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, 4.0, summary.Results[0].Carried[leave.TypeVacation])

	next, _ := f.quotas.get("u-1", 2027)
	assert.Equal(t, 4.0, next.Vacation.Total)
	assert.Equal(t, 4.0, next.Vacation.Remaining)

	history, err := f.quotas.ListHistory(context.Background(), "u-1", 2027)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 4.0, history[0].TotalDelta)
}

func TestCarryOver_SecondRunDoublesCarriedAmount(t *testing.T) {
	f := newCarryOverFixture("u-1")
	adminCtx := authedContext(t, "admin-1", user.RoleAdmin)

	f.grantVacation("u-1", 2026, 10)

	first, err := f.svc.Run(adminCtx, halfCappedAtFour())
	require.NoError(t, err)
	assert.False(t, first.PreviouslyRun)

	// The run marker warns but does not block. Running again adds the
	// carried amount a second time.
	second, err := f.svc.Run(adminCtx, halfCappedAtFour())
	require.NoError(t, err)
	assert.True(t, second.PreviouslyRun)

	next, _ := f.quotas.get("u-1", 2027)
	assert.Equal(t, 8.0, next.Vacation.Total)
	assert.Len(t, f.runs.runs, 2)
}

func TestCarryOver_AddsOnTopOfExistingAllotment(t *testing.T) {
	f := newCarryOverFixture("u-1")
	adminCtx := authedContext(t, "admin-1", user.RoleAdmin)

	f.grantVacation("u-1", 2026, 10)
	// 2027 already has its annual allotment; the carry is additive.
	f.grantVacation("u-1", 2027, 12)

	_, err := f.svc.Run(adminCtx, halfCappedAtFour())
	require.NoError(t, err)

	next, _ := f.quotas.get("u-1", 2027)
	assert.Equal(t, 16.0, next.Vacation.Total)
	assert.Equal(t, 16.0, next.Vacation.Remaining)
}

func TestCarryOver_UserWithoutSourceYearIsSkipped(t *testing.T) {
	f := newCarryOverFixture("u-1", "u-2")
	adminCtx := authedContext(t, "admin-1", user.RoleAdmin)

	f.grantVacation("u-1", 2026, 10)

	summary, err := f.svc.Run(adminCtx, halfCappedAtFour())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalUsers)
	assert.Equal(t, 2, summary.SuccessCount)

	// u-2 had no 2026 ledger: nothing carried, nothing created.
	_, exists := f.quotas.get("u-2", 2027)
	assert.False(t, exists)
}

func TestCarryOver_AdminOnly(t *testing.T) {
	f := newCarryOverFixture("u-1")

	_, err := f.svc.Run(authedContext(t, "hr-1", user.RoleHR), halfCappedAtFour())
	assert.ErrorIs(t, err, user.ErrPermissionDenied)
}
