package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/leave"
	"github.com/timekeep-hq/timekeep-backend-go/internal/repository/postgresql"
)

func TestRequestRepository_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewRequestRepository(db)
	ctx := context.Background()

	userID := seedUser(t, db, "worker@example.com")

	created, err := repo.Create(ctx, leave.Request{
		UserID:           userID,
		Type:             leave.TypeVacation,
		StartDate:        time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		TotalDays:        5,
		UrgentMultiplier: 1,
		ActualDays:       5,
		Status:           leave.StatusPending,
		Reason:           "family trip",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, fetched.Status)
	assert.Equal(t, 5.0, fetched.TotalDays)
	assert.Nil(t, fetched.PreviousStatus)

	approver := "hr-1"
	now := time.Now().UTC()
	fetched.Status = leave.StatusApproved
	fetched.ApprovedBy = &approver
	fetched.ApprovedAt = &now
	require.NoError(t, repo.Update(ctx, fetched))

	approved, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, approver, *approved.ApprovedBy)

	// Cancelling an approved request records the prior status.
	previous := approved.Status
	reason := "plans changed"
	approved.PreviousStatus = &previous
	approved.Status = leave.StatusCancelled
	approved.CancelledBy = &approver
	approved.CancelledAt = &now
	approved.CancelReason = &reason
	require.NoError(t, repo.Update(ctx, approved))

	cancelled, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.PreviousStatus)
	assert.Equal(t, leave.StatusApproved, *cancelled.PreviousStatus)
}

func TestRequestRepository_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewRequestRepository(db)

	_, err := repo.GetByID(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, leave.ErrRequestNotFound)
}

func TestRequestRepository_Listing(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewRequestRepository(db)
	ctx := context.Background()

	userA := seedUser(t, db, "a@example.com")
	userB := seedUser(t, db, "b@example.com")

	mk := func(userID string, status leave.RequestStatus) {
		_, err := repo.Create(ctx, leave.Request{
			UserID:           userID,
			Type:             leave.TypeSick,
			StartDate:        time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
			EndDate:          time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
			TotalDays:        1,
			UrgentMultiplier: 1,
			ActualDays:       1,
			Status:           status,
			Reason:           "flu",
		})
		require.NoError(t, err)
	}
	mk(userA, leave.StatusPending)
	mk(userA, leave.StatusApproved)
	mk(userB, leave.StatusPending)

	mine, err := repo.ListByUser(ctx, userA, "")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	minePending, err := repo.ListByUser(ctx, userA, string(leave.StatusPending))
	require.NoError(t, err)
	assert.Len(t, minePending, 1)

	allPending, err := repo.ListByStatus(ctx, string(leave.StatusPending))
	require.NoError(t, err)
	assert.Len(t, allPending, 2)
	for _, request := range allPending {
		require.NotNil(t, request.UserName)
	}

	everything, err := repo.ListByStatus(ctx, "")
	require.NoError(t, err)
	assert.Len(t, everything, 3)
}
