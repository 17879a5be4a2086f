package postgresql_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/leave"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/database"
	"github.com/timekeep-hq/timekeep-backend-go/internal/repository/postgresql"
)

func TestQuotaRepository_CreateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewQuotaRepository(db)
	ctx := context.Background()

	userID := seedUser(t, db, "worker@example.com")

	first, err := repo.Create(ctx, leave.QuotaYear{UserID: userID, Year: 2026})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 0.0, first.Sick.Total)

	// A second create for the same (user, year) returns the existing row.
	second, err := repo.Create(ctx, leave.QuotaYear{UserID: userID, Year: 2026})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestQuotaRepository_GetYearNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewQuotaRepository(db)
	ctx := context.Background()

	userID := seedUser(t, db, "worker@example.com")

	_, err := repo.GetYear(ctx, userID, 2026)
	assert.ErrorIs(t, err, leave.ErrQuotaNotFound)
}

func TestQuotaRepository_UpdateBalancesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewQuotaRepository(db)
	ctx := context.Background()

	userID := seedUser(t, db, "worker@example.com")

	quota, err := repo.Create(ctx, leave.QuotaYear{UserID: userID, Year: 2026})
	require.NoError(t, err)

	quota.Vacation.Total = 12
	quota.Vacation.Used = 3
	quota.Vacation.Recalc()
	require.NoError(t, repo.UpdateBalances(ctx, quota))

	fetched, err := repo.GetYear(ctx, userID, 2026)
	require.NoError(t, err)
	assert.Equal(t, 12.0, fetched.Vacation.Total)
	assert.Equal(t, 3.0, fetched.Vacation.Used)
	assert.Equal(t, 9.0, fetched.Vacation.Remaining)
	assert.Equal(t, 0.0, fetched.Sick.Total)
}

func TestQuotaRepository_LockedReadInsideTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewQuotaRepository(db)
	ctx := context.Background()

	userID := seedUser(t, db, "worker@example.com")
	_, err := repo.Create(ctx, leave.QuotaYear{UserID: userID, Year: 2026})
	require.NoError(t, err)

	err = database.WithTransaction(ctx, db, func(txCtx context.Context) error {
		quota, err := repo.GetYearForUpdate(txCtx, userID, 2026)
		require.NoError(t, err)

		quota.Sick.Total = 30
		quota.Sick.Recalc()
		return repo.UpdateBalances(txCtx, quota)
	})
	require.NoError(t, err)

	fetched, err := repo.GetYear(ctx, userID, 2026)
	require.NoError(t, err)
	assert.Equal(t, 30.0, fetched.Sick.Total)
	assert.Equal(t, 30.0, fetched.Sick.Remaining)
}

func TestQuotaRepository_History(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewQuotaRepository(db)
	ctx := context.Background()

	userID := seedUser(t, db, "worker@example.com")

	require.NoError(t, repo.AppendHistory(ctx, leave.QuotaHistory{
		UserID:     userID,
		Year:       2026,
		Type:       leave.TypeVacation,
		TotalDelta: 12,
		Reason:     "annual allotment",
		ActorID:    "admin-1",
	}))

	entries, err := repo.ListHistory(ctx, userID, 2026)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, leave.TypeVacation, entries[0].Type)
	assert.Equal(t, 12.0, entries[0].TotalDelta)
	assert.Equal(t, 0.0, entries[0].UsedDelta)

	otherYear, err := repo.ListHistory(ctx, userID, 2025)
	require.NoError(t, err)
	assert.Empty(t, otherYear)
}
