package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-chi/jwtauth/v5"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/leave"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/user"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/database"
)

type QuotaServiceImpl struct {
	tx database.TxManager
	leave.QuotaRepository
}

func NewQuotaService(tx database.TxManager, quotaRepo leave.QuotaRepository) leave.QuotaService {
	return &QuotaServiceImpl{tx: tx, QuotaRepository: quotaRepo}
}

// identityFromContext extracts the authenticated user id and role from the
// JWT claims.
func identityFromContext(ctx context.Context) (string, user.Role, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", "", fmt.Errorf("user_id claim is missing or invalid")
	}

	roleStr, _ := claims["role"].(string)
	return userID, user.Role(roleStr), nil
}

// EnsureYear implements leave.QuotaService.
func (s *QuotaServiceImpl) EnsureYear(ctx context.Context, userID string, year int) (leave.QuotaYear, bool, error) {
	quota, err := s.QuotaRepository.GetYear(ctx, userID, year)
	if err == nil {
		return quota, false, nil
	}
	if !errors.Is(err, leave.ErrQuotaNotFound) {
		return leave.QuotaYear{}, false, fmt.Errorf("failed to get quota year: %w", err)
	}

	created, err := s.QuotaRepository.Create(ctx, leave.QuotaYear{UserID: userID, Year: year})
	if err != nil {
		return leave.QuotaYear{}, false, fmt.Errorf("failed to initialize quota year: %w", err)
	}
	return created, true, nil
}

// GetYear implements leave.QuotaService.
func (s *QuotaServiceImpl) GetYear(ctx context.Context, userID string, year int) (leave.QuotaYearResponse, error) {
	callerID, role, err := identityFromContext(ctx)
	if err != nil {
		return leave.QuotaYearResponse{}, err
	}

	if userID == "" {
		userID = callerID
	}
	viewer := user.User{ID: callerID, Role: role}
	if userID != callerID && !viewer.IsHR() {
		return leave.QuotaYearResponse{}, user.ErrPermissionDenied
	}

	quota, created, err := s.EnsureYear(ctx, userID, year)
	if err != nil {
		return leave.QuotaYearResponse{}, err
	}

	resp := mapQuotaToResponse(quota)
	resp.Initialized = created
	return resp, nil
}

// SetTypeTotal implements leave.QuotaService.
func (s *QuotaServiceImpl) SetTypeTotal(ctx context.Context, req leave.SetQuotaRequest) (leave.QuotaYearResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.QuotaYearResponse{}, err
	}

	actorID, role, err := identityFromContext(ctx)
	if err != nil {
		return leave.QuotaYearResponse{}, err
	}
	actor := user.User{ID: actorID, Role: role}
	if !actor.CanManageQuota() {
		return leave.QuotaYearResponse{}, user.ErrPermissionDenied
	}

	leaveType := leave.LeaveType(req.Type)

	var updated leave.QuotaYear
	err = s.tx.WithTxRetry(ctx, func(txCtx context.Context) error {
		quota, _, err := s.ensureYearForUpdate(txCtx, req.UserID, req.Year)
		if err != nil {
			return err
		}

		balance := quota.Balance(leaveType)
		delta := req.NewTotal - balance.Total

		// Used stays as-is; lowering total below it leaves a negative
		// remaining, which is the intended audit signal.
		balance.Total = req.NewTotal
		balance.Recalc()

		if err := s.QuotaRepository.UpdateBalances(txCtx, quota); err != nil {
			return fmt.Errorf("failed to update balances: %w", err)
		}

		if err := s.QuotaRepository.AppendHistory(txCtx, leave.QuotaHistory{
			UserID:     quota.UserID,
			Year:       quota.Year,
			Type:       leaveType,
			TotalDelta: delta,
			Reason:     req.Reason,
			ActorID:    actorID,
		}); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}

		updated = quota
		return nil
	})
	if err != nil {
		return leave.QuotaYearResponse{}, err
	}

	return mapQuotaToResponse(updated), nil
}

// ListHistory implements leave.QuotaService.
func (s *QuotaServiceImpl) ListHistory(ctx context.Context, userID string, year int) ([]leave.QuotaHistory, error) {
	callerID, role, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	viewer := user.User{ID: callerID, Role: role}
	if userID != callerID && !viewer.IsHR() {
		return nil, user.ErrPermissionDenied
	}

	return s.QuotaRepository.ListHistory(ctx, userID, year)
}

// ensureYearForUpdate is EnsureYear with a row lock; must run inside a
// transaction.
func (s *QuotaServiceImpl) ensureYearForUpdate(ctx context.Context, userID string, year int) (leave.QuotaYear, bool, error) {
	quota, err := s.QuotaRepository.GetYearForUpdate(ctx, userID, year)
	if err == nil {
		return quota, false, nil
	}
	if !errors.Is(err, leave.ErrQuotaNotFound) {
		return leave.QuotaYear{}, false, fmt.Errorf("failed to get quota year: %w", err)
	}

	if _, err := s.QuotaRepository.Create(ctx, leave.QuotaYear{UserID: userID, Year: year}); err != nil {
		return leave.QuotaYear{}, false, fmt.Errorf("failed to initialize quota year: %w", err)
	}

	// Re-read under the lock so later writes in this transaction see the row.
	quota, err = s.QuotaRepository.GetYearForUpdate(ctx, userID, year)
	if err != nil {
		return leave.QuotaYear{}, false, fmt.Errorf("failed to re-read quota year: %w", err)
	}
	return quota, true, nil
}

func mapBalance(b leave.Balance) leave.BalanceResponse {
	return leave.BalanceResponse{Total: b.Total, Used: b.Used, Remaining: b.Remaining}
}

// mapQuotaToResponse converts a QuotaYear entity to QuotaYearResponse
func mapQuotaToResponse(q leave.QuotaYear) leave.QuotaYearResponse {
	return leave.QuotaYearResponse{
		UserID:   q.UserID,
		Year:     q.Year,
		Sick:     mapBalance(q.Sick),
		Personal: mapBalance(q.Personal),
		Vacation: mapBalance(q.Vacation),
	}
}
