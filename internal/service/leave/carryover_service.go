package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/leave"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/user"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/database"
)

// carryOverWorkers bounds how many per-user transactions run at once.
const carryOverWorkers = 8

type CarryOverServiceImpl struct {
	tx     database.TxManager
	quotas leave.QuotaRepository
	runs   leave.CarryOverRepository
	users  user.UserRepository
}

func NewCarryOverService(
	tx database.TxManager,
	quotaRepo leave.QuotaRepository,
	runRepo leave.CarryOverRepository,
	userRepo user.UserRepository,
) leave.CarryOverService {
	return &CarryOverServiceImpl{
		tx:     tx,
		quotas: quotaRepo,
		runs:   runRepo,
		users:  userRepo,
	}
}

// Run implements leave.CarryOverService. Each user is one transaction: a
// failing user rolls back alone and the batch keeps going. The run marker is
// diagnostic; re-running the same year pair carries over again.
func (s *CarryOverServiceImpl) Run(ctx context.Context, req leave.RunCarryOverRequest) (leave.CarryOverSummary, error) {
	if err := req.Validate(); err != nil {
		return leave.CarryOverSummary{}, err
	}

	executorID, role, err := identityFromContext(ctx)
	if err != nil {
		return leave.CarryOverSummary{}, err
	}
	executor := user.User{ID: executorID, Role: role}
	if !executor.IsAdmin() {
		return leave.CarryOverSummary{}, user.ErrPermissionDenied
	}

	rules := make(leave.CarryOverRules, len(req.Rules))
	for name, input := range req.Rules {
		rules[leave.LeaveType(name)] = leave.CarryOverRule{
			Enabled:    input.Enabled,
			MaxDays:    input.MaxDays,
			Percentage: input.Percentage,
		}
	}

	userIDs := req.UserIDs
	if len(userIDs) == 0 {
		userIDs, err = s.users.ListActiveIDs(ctx)
		if err != nil {
			return leave.CarryOverSummary{}, fmt.Errorf("failed to list active users: %w", err)
		}
	}

	lastRun, err := s.runs.GetLastRun(ctx, req.FromYear, req.ToYear)
	if err != nil {
		slog.Warn("failed to look up previous carry-over run", "from_year", req.FromYear, "to_year", req.ToYear, "error", err)
	}

	results := make([]leave.CarryOverUserResult, len(userIDs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, carryOverWorkers)
	for i, userID := range userIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, userID string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.carryOverUser(ctx, userID, req.FromYear, req.ToYear, rules, executorID)
		}(i, userID)
	}
	wg.Wait()

	summary := leave.CarryOverSummary{
		TotalUsers:    len(userIDs),
		Results:       results,
		PreviouslyRun: lastRun != nil,
	}
	for _, result := range results {
		if result.Failed() {
			summary.FailedCount++
		} else {
			summary.SuccessCount++
		}
	}

	if _, err := s.runs.RecordRun(ctx, leave.CarryOverRun{
		FromYear:     req.FromYear,
		ToYear:       req.ToYear,
		ExecutorID:   executorID,
		TotalUsers:   summary.TotalUsers,
		SuccessCount: summary.SuccessCount,
		FailedCount:  summary.FailedCount,
	}); err != nil {
		slog.Warn("failed to record carry-over run", "from_year", req.FromYear, "to_year", req.ToYear, "error", err)
	}

	return summary, nil
}

func (s *CarryOverServiceImpl) carryOverUser(ctx context.Context, userID string, fromYear, toYear int, rules leave.CarryOverRules, executorID string) leave.CarryOverUserResult {
	result := leave.CarryOverUserResult{UserID: userID}

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		fromQuota, err := s.quotas.GetYear(txCtx, userID, fromYear)
		if err != nil {
			// No source-year ledger means nothing to carry.
			if errors.Is(err, leave.ErrQuotaNotFound) {
				return nil
			}
			return fmt.Errorf("failed to get source year: %w", err)
		}

		carried := make(map[leave.LeaveType]float64)
		for _, leaveType := range leave.Types {
			rule, ok := rules[leaveType]
			if !ok {
				continue
			}
			amount := carryAmount(fromQuota.Balance(leaveType).Remaining, rule)
			if amount <= 0 {
				continue
			}
			carried[leaveType] = amount
		}

		if len(carried) == 0 {
			return nil
		}

		toQuota, err := s.quotas.GetYearForUpdate(txCtx, userID, toYear)
		if errors.Is(err, leave.ErrQuotaNotFound) {
			if _, err := s.quotas.Create(txCtx, leave.QuotaYear{UserID: userID, Year: toYear}); err != nil {
				return fmt.Errorf("failed to initialize target year: %w", err)
			}
			toQuota, err = s.quotas.GetYearForUpdate(txCtx, userID, toYear)
			if err != nil {
				return fmt.Errorf("failed to re-read target year: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to get target year: %w", err)
		}

		for leaveType, amount := range carried {
			balance := toQuota.Balance(leaveType)
			balance.Total += amount
			balance.Recalc()

			if err := s.quotas.AppendHistory(txCtx, leave.QuotaHistory{
				UserID:     userID,
				Year:       toYear,
				Type:       leaveType,
				TotalDelta: amount,
				Reason:     fmt.Sprintf("carry-over from %d", fromYear),
				ActorID:    executorID,
			}); err != nil {
				return fmt.Errorf("failed to append history: %w", err)
			}
		}

		if err := s.quotas.UpdateBalances(txCtx, toQuota); err != nil {
			return fmt.Errorf("failed to update balances: %w", err)
		}

		result.Carried = carried
		return nil
	})
	if err != nil {
		result.Carried = nil
		result.Error = err.Error()
	}
	return result
}
