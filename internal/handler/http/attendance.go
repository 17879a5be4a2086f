package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/attendance"
	"github.com/timekeep-hq/timekeep-backend-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	ApproveOvertime(w http.ResponseWriter, r *http.Request)
	ManualCheckout(w http.ResponseWriter, r *http.Request)
	Sweep(w http.ResponseWriter, r *http.Request)
	GetSession(w http.ResponseWriter, r *http.Request)
	GetSessionEdits(w http.ResponseWriter, r *http.Request)
	ListSessions(w http.ResponseWriter, r *http.Request)
	GetMySessions(w http.ResponseWriter, r *http.Request)
}

type AttendanceHandlerImpl struct {
	sessionService attendance.SessionService
}

func NewAttendanceHandler(sessionService attendance.SessionService) AttendanceHandler {
	return &AttendanceHandlerImpl{sessionService: sessionService}
}

// CheckIn implements AttendanceHandler.
func (h *AttendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	var checkInReq attendance.CheckInRequest

	if err := json.NewDecoder(r.Body).Decode(&checkInReq); err != nil {
		slog.Error("CheckIn decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.sessionService.CheckIn(r.Context(), checkInReq)
	if err != nil {
		slog.Error("CheckIn service error", "error", err)
		response.HandleError(w, err)
		return
	}

	if result.RequiresShiftSelection {
		response.SuccessWithMessage(w, "Multiple shifts are available, pick one and check in again", result)
		return
	}

	response.Created(w, "Checked in", result)
}

// CheckOut implements AttendanceHandler.
func (h *AttendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	var checkOutReq attendance.CheckOutRequest

	if err := json.NewDecoder(r.Body).Decode(&checkOutReq); err != nil {
		slog.Error("CheckOut decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	session, err := h.sessionService.CheckOut(r.Context(), checkOutReq)
	if err != nil {
		slog.Error("CheckOut service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, session)
}

// ApproveOvertime implements AttendanceHandler.
func (h *AttendanceHandlerImpl) ApproveOvertime(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	session, err := h.sessionService.ApproveOvertime(r.Context(), sessionID)
	if err != nil {
		slog.Error("ApproveOvertime service error", "session_id", sessionID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Overtime approved", session)
}

// ManualCheckout implements AttendanceHandler.
func (h *AttendanceHandlerImpl) ManualCheckout(w http.ResponseWriter, r *http.Request) {
	var manualReq attendance.ManualCheckoutRequest

	if err := json.NewDecoder(r.Body).Decode(&manualReq); err != nil {
		slog.Error("ManualCheckout decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	manualReq.SessionID = chi.URLParam(r, "id")

	session, err := h.sessionService.ManualCheckout(r.Context(), manualReq)
	if err != nil {
		slog.Error("ManualCheckout service error", "session_id", manualReq.SessionID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Session closed", session)
}

// Sweep implements AttendanceHandler. The cron job runs the same sweep on a
// schedule; this endpoint exists for operators.
func (h *AttendanceHandlerImpl) Sweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessionService.SweepAbandonedSessions(r.Context())
	if err != nil {
		slog.Error("Sweep service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetSession implements AttendanceHandler.
func (h *AttendanceHandlerImpl) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	session, err := h.sessionService.GetSession(r.Context(), sessionID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, session)
}

// GetSessionEdits implements AttendanceHandler.
func (h *AttendanceHandlerImpl) GetSessionEdits(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	edits, err := h.sessionService.GetSessionEdits(r.Context(), sessionID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, edits)
}

// ListSessions implements AttendanceHandler.
func (h *AttendanceHandlerImpl) ListSessions(w http.ResponseWriter, r *http.Request) {
	filter := sessionFilterFromQuery(r)
	filter.UserID = r.URL.Query().Get("user_id")

	result, err := h.sessionService.ListSessions(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Sessions, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

// GetMySessions implements AttendanceHandler.
func (h *AttendanceHandlerImpl) GetMySessions(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessionService.GetMySessions(r.Context(), sessionFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Sessions, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

func sessionFilterFromQuery(r *http.Request) attendance.SessionFilter {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	return attendance.SessionFilter{
		SiteID:   q.Get("site_id"),
		Status:   q.Get("status"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
		Page:     page,
		Limit:    limit,
	}
}
