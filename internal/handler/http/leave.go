package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/leave"
	"github.com/timekeep-hq/timekeep-backend-go/internal/handler/http/response"
)

type LeaveHandler interface {
	SubmitRequest(w http.ResponseWriter, r *http.Request)
	ApproveRequest(w http.ResponseWriter, r *http.Request)
	RejectRequest(w http.ResponseWriter, r *http.Request)
	CancelRequest(w http.ResponseWriter, r *http.Request)
	CancelApprovedRequest(w http.ResponseWriter, r *http.Request)
	GetRequest(w http.ResponseWriter, r *http.Request)
	ListMyRequests(w http.ResponseWriter, r *http.Request)
	ListRequests(w http.ResponseWriter, r *http.Request)

	GetMyQuota(w http.ResponseWriter, r *http.Request)
	GetQuota(w http.ResponseWriter, r *http.Request)
	SetQuota(w http.ResponseWriter, r *http.Request)
	GetQuotaHistory(w http.ResponseWriter, r *http.Request)

	RunCarryOver(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	quotaService     leave.QuotaService
	requestService   leave.RequestService
	carryOverService leave.CarryOverService
}

func NewLeaveHandler(
	quotaService leave.QuotaService,
	requestService leave.RequestService,
	carryOverService leave.CarryOverService,
) LeaveHandler {
	return &LeaveHandlerImpl{
		quotaService:     quotaService,
		requestService:   requestService,
		carryOverService: carryOverService,
	}
}

// SubmitRequest implements LeaveHandler.
func (h *LeaveHandlerImpl) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var submitReq leave.SubmitRequest

	if err := json.NewDecoder(r.Body).Decode(&submitReq); err != nil {
		slog.Error("SubmitRequest decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	request, err := h.requestService.Submit(r.Context(), submitReq)
	if err != nil {
		slog.Error("SubmitRequest service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request submitted", request)
}

// ApproveRequest implements LeaveHandler.
func (h *LeaveHandlerImpl) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")

	request, err := h.requestService.Approve(r.Context(), requestID)
	if err != nil {
		slog.Error("ApproveRequest service error", "request_id", requestID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request approved", request)
}

// RejectRequest implements LeaveHandler.
func (h *LeaveHandlerImpl) RejectRequest(w http.ResponseWriter, r *http.Request) {
	var rejectReq leave.RejectRequest

	if err := json.NewDecoder(r.Body).Decode(&rejectReq); err != nil {
		slog.Error("RejectRequest decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	rejectReq.ID = chi.URLParam(r, "id")

	request, err := h.requestService.Reject(r.Context(), rejectReq)
	if err != nil {
		slog.Error("RejectRequest service error", "request_id", rejectReq.ID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request rejected", request)
}

// CancelRequest implements LeaveHandler.
func (h *LeaveHandlerImpl) CancelRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")

	request, err := h.requestService.Cancel(r.Context(), requestID)
	if err != nil {
		slog.Error("CancelRequest service error", "request_id", requestID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request cancelled", request)
}

// CancelApprovedRequest implements LeaveHandler.
func (h *LeaveHandlerImpl) CancelApprovedRequest(w http.ResponseWriter, r *http.Request) {
	var cancelReq leave.CancelApprovedRequest

	if err := json.NewDecoder(r.Body).Decode(&cancelReq); err != nil {
		slog.Error("CancelApprovedRequest decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	cancelReq.ID = chi.URLParam(r, "id")

	request, err := h.requestService.CancelApproved(r.Context(), cancelReq)
	if err != nil {
		slog.Error("CancelApprovedRequest service error", "request_id", cancelReq.ID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Approved leave request cancelled and quota refunded", request)
}

// GetRequest implements LeaveHandler.
func (h *LeaveHandlerImpl) GetRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")

	request, err := h.requestService.GetRequest(r.Context(), requestID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, request)
}

// ListMyRequests implements LeaveHandler.
func (h *LeaveHandlerImpl) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requestService.ListMyRequests(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, requests)
}

// ListRequests implements LeaveHandler.
func (h *LeaveHandlerImpl) ListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requestService.ListRequests(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, requests)
}

// GetMyQuota implements LeaveHandler.
func (h *LeaveHandlerImpl) GetMyQuota(w http.ResponseWriter, r *http.Request) {
	quota, err := h.quotaService.GetYear(r.Context(), "", yearFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, quota)
}

// GetQuota implements LeaveHandler.
func (h *LeaveHandlerImpl) GetQuota(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	quota, err := h.quotaService.GetYear(r.Context(), userID, yearFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, quota)
}

// SetQuota implements LeaveHandler.
func (h *LeaveHandlerImpl) SetQuota(w http.ResponseWriter, r *http.Request) {
	var setReq leave.SetQuotaRequest

	if err := json.NewDecoder(r.Body).Decode(&setReq); err != nil {
		slog.Error("SetQuota decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	setReq.UserID = chi.URLParam(r, "userID")

	quota, err := h.quotaService.SetTypeTotal(r.Context(), setReq)
	if err != nil {
		slog.Error("SetQuota service error", "user_id", setReq.UserID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Quota updated", quota)
}

// GetQuotaHistory implements LeaveHandler.
func (h *LeaveHandlerImpl) GetQuotaHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	history, err := h.quotaService.ListHistory(r.Context(), userID, yearFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, history)
}

// RunCarryOver implements LeaveHandler.
func (h *LeaveHandlerImpl) RunCarryOver(w http.ResponseWriter, r *http.Request) {
	var runReq leave.RunCarryOverRequest

	if err := json.NewDecoder(r.Body).Decode(&runReq); err != nil {
		slog.Error("RunCarryOver decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	summary, err := h.carryOverService.Run(r.Context(), runReq)
	if err != nil {
		slog.Error("RunCarryOver service error", "from_year", runReq.FromYear, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Carry-over batch completed", summary)
}

func yearFromQuery(r *http.Request) int {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year == 0 {
		return time.Now().UTC().Year()
	}
	return year
}
