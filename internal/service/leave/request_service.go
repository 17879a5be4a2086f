package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/leave"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/user"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/database"
)

type RequestServiceImpl struct {
	tx       database.TxManager
	requests leave.RequestRepository
	quotas   leave.QuotaRepository
	quota    leave.QuotaService
}

func NewRequestService(
	tx database.TxManager,
	requestRepo leave.RequestRepository,
	quotaRepo leave.QuotaRepository,
	quotaService leave.QuotaService,
) leave.RequestService {
	return &RequestServiceImpl{
		tx:       tx,
		requests: requestRepo,
		quotas:   quotaRepo,
		quota:    quotaService,
	}
}

// Submit implements leave.RequestService.
func (s *RequestServiceImpl) Submit(ctx context.Context, req leave.SubmitRequest) (leave.RequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.RequestResponse{}, err
	}

	userID, _, err := identityFromContext(ctx)
	if err != nil {
		return leave.RequestResponse{}, err
	}

	leaveType := leave.LeaveType(req.Type)
	policy := leave.Policies[leaveType]

	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)

	totalDays := inclusiveDays(start, end)

	multiplier := 1.0
	urgent := false
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if insideNoticeWindow(policy, start, today) {
		// Inside the notice window the request only proceeds as an
		// explicitly confirmed urgent one, at the penalty rate.
		if !req.IsUrgent {
			return leave.RequestResponse{}, leave.ErrUrgentConfirmationRequired
		}
		urgent = true
		multiplier = policy.UrgentMultiplier
	}

	actualDays := totalDays * multiplier

	quota, _, err := s.quota.EnsureYear(ctx, userID, start.Year())
	if err != nil {
		return leave.RequestResponse{}, err
	}
	remaining := quota.Balance(leaveType).Remaining
	if actualDays > remaining {
		return leave.RequestResponse{}, &leave.InsufficientQuotaError{
			Remaining: remaining,
			Requested: actualDays,
		}
	}

	request := leave.Request{
		UserID:           userID,
		Type:             leaveType,
		StartDate:        start,
		EndDate:          end,
		TotalDays:        totalDays,
		IsUrgent:         urgent,
		UrgentMultiplier: multiplier,
		ActualDays:       actualDays,
		Status:           leave.StatusPending,
		Reason:           req.Reason,
		AttachmentURL:    req.AttachmentURL,
	}

	created, err := s.requests.Create(ctx, request)
	if err != nil {
		return leave.RequestResponse{}, fmt.Errorf("failed to create leave request: %w", err)
	}

	return mapRequestToResponse(created), nil
}

// Approve implements leave.RequestService. The status flip and the quota
// debit commit together or not at all.
func (s *RequestServiceImpl) Approve(ctx context.Context, id string) (leave.RequestResponse, error) {
	approverID, role, err := identityFromContext(ctx)
	if err != nil {
		return leave.RequestResponse{}, err
	}
	approver := user.User{ID: approverID, Role: role}
	if !approver.CanApprove() {
		return leave.RequestResponse{}, user.ErrPermissionDenied
	}

	var approved leave.Request
	err = s.tx.WithTxRetry(ctx, func(txCtx context.Context) error {
		request, err := s.requests.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if request.Status != leave.StatusPending {
			return leave.ErrAlreadyProcessed
		}

		quota, err := s.quotas.GetYearForUpdate(txCtx, request.UserID, request.StartDate.Year())
		if err != nil {
			return err
		}

		balance := quota.Balance(request.Type)
		if request.ActualDays > balance.Remaining {
			return &leave.InsufficientQuotaError{
				Remaining: balance.Remaining,
				Requested: request.ActualDays,
			}
		}

		balance.Used += request.ActualDays
		balance.Recalc()

		if err := s.quotas.UpdateBalances(txCtx, quota); err != nil {
			return fmt.Errorf("failed to update balances: %w", err)
		}

		if err := s.quotas.AppendHistory(txCtx, leave.QuotaHistory{
			UserID:    quota.UserID,
			Year:      quota.Year,
			Type:      request.Type,
			UsedDelta: request.ActualDays,
			Reason:    fmt.Sprintf("leave request %s approved", request.ID),
			ActorID:   approverID,
		}); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}

		now := time.Now().UTC()
		request.Status = leave.StatusApproved
		request.ApprovedBy = &approverID
		request.ApprovedAt = &now

		if err := s.requests.Update(txCtx, request); err != nil {
			return fmt.Errorf("failed to update leave request: %w", err)
		}

		approved = request
		return nil
	})
	if err != nil {
		return leave.RequestResponse{}, err
	}

	return mapRequestToResponse(approved), nil
}

// Reject implements leave.RequestService.
func (s *RequestServiceImpl) Reject(ctx context.Context, req leave.RejectRequest) (leave.RequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.RequestResponse{}, err
	}

	rejecterID, role, err := identityFromContext(ctx)
	if err != nil {
		return leave.RequestResponse{}, err
	}
	rejecter := user.User{ID: rejecterID, Role: role}
	if !rejecter.CanApprove() {
		return leave.RequestResponse{}, user.ErrPermissionDenied
	}

	request, err := s.requests.GetByID(ctx, req.ID)
	if err != nil {
		return leave.RequestResponse{}, err
	}
	if request.Status != leave.StatusPending {
		return leave.RequestResponse{}, leave.ErrAlreadyProcessed
	}

	now := time.Now().UTC()
	request.Status = leave.StatusRejected
	request.RejectedBy = &rejecterID
	request.RejectedAt = &now
	request.RejectedReason = &req.Reason

	if err := s.requests.Update(ctx, request); err != nil {
		return leave.RequestResponse{}, fmt.Errorf("failed to update leave request: %w", err)
	}

	return mapRequestToResponse(request), nil
}

// Cancel implements leave.RequestService. Only the requester may withdraw,
// and only while the request is still pending.
func (s *RequestServiceImpl) Cancel(ctx context.Context, id string) (leave.RequestResponse, error) {
	callerID, _, err := identityFromContext(ctx)
	if err != nil {
		return leave.RequestResponse{}, err
	}

	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return leave.RequestResponse{}, err
	}
	if request.UserID != callerID {
		return leave.RequestResponse{}, user.ErrPermissionDenied
	}
	if request.Status != leave.StatusPending {
		return leave.RequestResponse{}, leave.ErrAlreadyProcessed
	}

	now := time.Now().UTC()
	request.Status = leave.StatusCancelled
	request.CancelledBy = &callerID
	request.CancelledAt = &now

	if err := s.requests.Update(ctx, request); err != nil {
		return leave.RequestResponse{}, fmt.Errorf("failed to update leave request: %w", err)
	}

	return mapRequestToResponse(request), nil
}

// CancelApproved implements leave.RequestService. Refunds the debited days;
// the refund never pushes used below zero.
func (s *RequestServiceImpl) CancelApproved(ctx context.Context, req leave.CancelApprovedRequest) (leave.RequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.RequestResponse{}, err
	}

	actorID, role, err := identityFromContext(ctx)
	if err != nil {
		return leave.RequestResponse{}, err
	}
	actor := user.User{ID: actorID, Role: role}
	if !actor.CanApprove() {
		return leave.RequestResponse{}, user.ErrPermissionDenied
	}

	var cancelled leave.Request
	err = s.tx.WithTxRetry(ctx, func(txCtx context.Context) error {
		request, err := s.requests.GetByIDForUpdate(txCtx, req.ID)
		if err != nil {
			return err
		}
		if request.Status != leave.StatusApproved {
			return leave.ErrAlreadyProcessed
		}

		quota, err := s.quotas.GetYearForUpdate(txCtx, request.UserID, request.StartDate.Year())
		if err != nil {
			return err
		}

		balance := quota.Balance(request.Type)
		refund := request.ActualDays
		if refund > balance.Used {
			refund = balance.Used
		}
		balance.Used -= refund
		balance.Recalc()

		if err := s.quotas.UpdateBalances(txCtx, quota); err != nil {
			return fmt.Errorf("failed to update balances: %w", err)
		}

		if err := s.quotas.AppendHistory(txCtx, leave.QuotaHistory{
			UserID:    quota.UserID,
			Year:      quota.Year,
			Type:      request.Type,
			UsedDelta: -refund,
			Reason:    req.Reason,
			ActorID:   actorID,
		}); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}

		now := time.Now().UTC()
		previous := request.Status
		request.PreviousStatus = &previous
		request.Status = leave.StatusCancelled
		request.CancelledBy = &actorID
		request.CancelledAt = &now
		request.CancelReason = &req.Reason

		if err := s.requests.Update(txCtx, request); err != nil {
			return fmt.Errorf("failed to update leave request: %w", err)
		}

		cancelled = request
		return nil
	})
	if err != nil {
		return leave.RequestResponse{}, err
	}

	return mapRequestToResponse(cancelled), nil
}

// GetRequest implements leave.RequestService.
func (s *RequestServiceImpl) GetRequest(ctx context.Context, id string) (leave.RequestResponse, error) {
	callerID, role, err := identityFromContext(ctx)
	if err != nil {
		return leave.RequestResponse{}, err
	}

	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return leave.RequestResponse{}, err
	}

	viewer := user.User{ID: callerID, Role: role}
	if request.UserID != callerID && !viewer.IsHR() {
		return leave.RequestResponse{}, user.ErrPermissionDenied
	}

	return mapRequestToResponse(request), nil
}

// ListMyRequests implements leave.RequestService.
func (s *RequestServiceImpl) ListMyRequests(ctx context.Context, status string) ([]leave.RequestResponse, error) {
	callerID, _, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	requests, err := s.requests.ListByUser(ctx, callerID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	return mapRequestsToResponses(requests), nil
}

// ListRequests implements leave.RequestService.
func (s *RequestServiceImpl) ListRequests(ctx context.Context, status string) ([]leave.RequestResponse, error) {
	_, role, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	viewer := user.User{Role: role}
	if !viewer.IsHR() {
		return nil, user.ErrPermissionDenied
	}

	requests, err := s.requests.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	return mapRequestsToResponses(requests), nil
}

func mapRequestsToResponses(requests []leave.Request) []leave.RequestResponse {
	responses := make([]leave.RequestResponse, 0, len(requests))
	for _, request := range requests {
		responses = append(responses, mapRequestToResponse(request))
	}
	return responses
}

// mapRequestToResponse converts a Request entity to RequestResponse
func mapRequestToResponse(request leave.Request) leave.RequestResponse {
	var userName string
	if request.UserName != nil {
		userName = *request.UserName
	}

	var previousStatus *string
	if request.PreviousStatus != nil {
		str := string(*request.PreviousStatus)
		previousStatus = &str
	}

	return leave.RequestResponse{
		ID:               request.ID,
		UserID:           request.UserID,
		UserName:         userName,
		Type:             string(request.Type),
		StartDate:        request.StartDate.Format("2006-01-02"),
		EndDate:          request.EndDate.Format("2006-01-02"),
		TotalDays:        request.TotalDays,
		IsUrgent:         request.IsUrgent,
		UrgentMultiplier: request.UrgentMultiplier,
		ActualDays:       request.ActualDays,
		Status:           string(request.Status),
		PreviousStatus:   previousStatus,
		Reason:           request.Reason,
		AttachmentURL:    request.AttachmentURL,
		RejectedReason:   request.RejectedReason,
		CancelReason:     request.CancelReason,
	}
}
