package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/attendance"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/holiday"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/site"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/user"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/database"
)

type SessionServiceImpl struct {
	tx database.TxManager
	attendance.SessionRepository
	site.SiteRepository
	holiday.HolidayRepository
	user.UserRepository
	staleAfter time.Duration
}

func NewSessionService(
	tx database.TxManager,
	sessionRepo attendance.SessionRepository,
	siteRepo site.SiteRepository,
	holidayRepo holiday.HolidayRepository,
	userRepo user.UserRepository,
	staleAfter time.Duration,
) attendance.SessionService {
	return &SessionServiceImpl{
		tx:                tx,
		SessionRepository: sessionRepo,
		SiteRepository:    siteRepo,
		HolidayRepository: holidayRepo,
		UserRepository:    userRepo,
		staleAfter:        staleAfter,
	}
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

// sessionWindow returns the two-day [from, to] date window that open-session
// lookups scan, so overnight shifts started yesterday are still found.
func sessionWindow(now time.Time) (time.Time, time.Time) {
	today := now.Truncate(24 * time.Hour)
	return today.AddDate(0, 0, -1), today
}

// CheckIn implements attendance.SessionService.
func (s *SessionServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.CheckInResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CheckInResponse{}, err
	}

	userID, _, err := identityFromContext(ctx)
	if err != nil {
		return attendance.CheckInResponse{}, err
	}

	usr, err := s.UserRepository.GetByID(ctx, userID)
	if err != nil {
		return attendance.CheckInResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	allowedSites, err := s.SiteRepository.GetByIDs(ctx, usr.AllowedSiteIDs)
	if err != nil {
		return attendance.CheckInResponse{}, fmt.Errorf("failed to get allowed sites: %w", err)
	}

	resolution, err := ResolveCheckin(req.Latitude, req.Longitude, allowedSites, usr.AllowOffsiteCheckin, req.ShiftID)
	if err != nil {
		return attendance.CheckInResponse{}, err
	}

	if resolution.RequiresShiftSelection() {
		options := make([]attendance.ShiftOption, 0, len(resolution.ShiftCandidates))
		for _, candidate := range resolution.ShiftCandidates {
			options = append(options, attendance.ShiftOption{
				ID:           candidate.ID,
				Name:         candidate.Name,
				Start:        candidate.Start.Format("15:04"),
				End:          candidate.End.Format("15:04"),
				GraceMinutes: candidate.GraceMinutes,
			})
		}
		return attendance.CheckInResponse{
			RequiresShiftSelection: true,
			ShiftCandidates:        options,
		}, nil
	}

	now := time.Now().UTC()

	session := attendance.Session{
		UserID:             userID,
		Date:               now.Truncate(24 * time.Hour),
		CheckinType:        resolution.CheckinType,
		CheckinTime:        now,
		CheckinLatitude:    req.Latitude,
		CheckinLongitude:   req.Longitude,
		Status:             attendance.StatusCheckedIn,
		OvertimeMultiplier: 1,
	}
	if resolution.Site != nil {
		session.SiteID = &resolution.Site.ID
	}
	if resolution.Shift != nil {
		session.ShiftID = &resolution.Shift.ID

		shiftStart := anchorClock(now, resolution.Shift.Start)
		lateBy := int(now.Sub(shiftStart).Minutes()) - resolution.Shift.GraceMinutes
		if lateBy > 0 {
			session.IsLate = true
			session.LateMinutes = lateBy
		}
	}

	// The existence check and the insert share one transaction: a plain
	// read-then-write lets two simultaneous check-ins both observe "no
	// active session".
	var created attendance.Session
	err = s.tx.WithTxRetry(ctx, func(txCtx context.Context) error {
		from, to := sessionWindow(now)
		open, err := s.SessionRepository.GetOpenSessionForUpdate(txCtx, userID, from, to)
		if err != nil {
			return fmt.Errorf("failed to check for an active session: %w", err)
		}
		if open != nil {
			return attendance.ErrAlreadyCheckedIn
		}

		created, err = s.SessionRepository.Create(txCtx, session)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.CheckInResponse{}, err
	}

	resp := mapSessionToResponse(created)
	return attendance.CheckInResponse{Session: &resp}, nil
}

// CheckOut implements attendance.SessionService.
func (s *SessionServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.SessionResponse{}, err
	}

	userID, _, err := identityFromContext(ctx)
	if err != nil {
		return attendance.SessionResponse{}, err
	}

	now := time.Now().UTC()
	from, to := sessionWindow(now)

	session, err := s.SessionRepository.GetOpenSession(ctx, userID, from, to)
	if err != nil {
		return attendance.SessionResponse{}, fmt.Errorf("failed to get open session: %w", err)
	}
	if session == nil {
		return attendance.SessionResponse{}, attendance.ErrNoActiveSession
	}

	siteData, shiftData, err := s.loadSiteAndShift(ctx, session)
	if err != nil {
		return attendance.SessionResponse{}, err
	}

	session.CheckoutTime = &now
	session.CheckoutLatitude = &req.Latitude
	session.CheckoutLongitude = &req.Longitude

	applyHours(session, ComputeHours(session.CheckinTime, now, siteData, shiftData, false))

	if NeedsOvertimeApproval(session.CheckinTime, now, siteData) {
		session.Status = attendance.StatusPendingApproval
	} else {
		session.Status = attendance.StatusCompleted
	}

	session.OvertimeMultiplier = s.overtimeMultiplier(ctx, session)

	if err := s.SessionRepository.Update(ctx, *session); err != nil {
		return attendance.SessionResponse{}, fmt.Errorf("failed to update session: %w", err)
	}

	return mapSessionToResponse(*session), nil
}

// ApproveOvertime implements attendance.SessionService.
func (s *SessionServiceImpl) ApproveOvertime(ctx context.Context, sessionID string) (attendance.SessionResponse, error) {
	approverID, role, err := identityFromContext(ctx)
	if err != nil {
		return attendance.SessionResponse{}, err
	}
	approver := user.User{ID: approverID, Role: role}
	if !approver.CanApprove() {
		return attendance.SessionResponse{}, user.ErrPermissionDenied
	}

	session, err := s.SessionRepository.GetByID(ctx, sessionID)
	if err != nil {
		return attendance.SessionResponse{}, err
	}
	if session.Status != attendance.StatusPendingApproval {
		return attendance.SessionResponse{}, attendance.ErrSessionNotPending
	}
	if session.CheckoutTime == nil {
		return attendance.SessionResponse{}, fmt.Errorf("session %s is pending approval but has no checkout time", session.ID)
	}

	siteData, shiftData, err := s.loadSiteAndShift(ctx, &session)
	if err != nil {
		return attendance.SessionResponse{}, err
	}

	// The checkout was capped at closing when the figures were first
	// computed; the stored checkout instant is the real one, so the
	// approved recomputation recovers the full overtime.
	applyHours(&session, ComputeHours(session.CheckinTime, *session.CheckoutTime, siteData, shiftData, true))
	session.Status = attendance.StatusCompleted
	session.OvertimeApproved = true

	if err := s.SessionRepository.Update(ctx, session); err != nil {
		return attendance.SessionResponse{}, fmt.Errorf("failed to update session: %w", err)
	}

	if err := s.SessionRepository.AppendEdit(ctx, attendance.SessionEdit{
		SessionID: session.ID,
		ActorID:   approverID,
		Action:    "overtime_approved",
		Note:      fmt.Sprintf("overtime recomputed, %.2f hour(s)", session.OvertimeHours),
	}); err != nil {
		slog.Warn("failed to append session edit", "session_id", session.ID, "error", err)
	}

	return mapSessionToResponse(session), nil
}

// ManualCheckout implements attendance.SessionService.
func (s *SessionServiceImpl) ManualCheckout(ctx context.Context, req attendance.ManualCheckoutRequest) (attendance.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.SessionResponse{}, err
	}

	approverID, role, err := identityFromContext(ctx)
	if err != nil {
		return attendance.SessionResponse{}, err
	}
	approver := user.User{ID: approverID, Role: role}
	if !approver.IsHR() {
		return attendance.SessionResponse{}, user.ErrPermissionDenied
	}

	session, err := s.SessionRepository.GetByID(ctx, req.SessionID)
	if err != nil {
		return attendance.SessionResponse{}, err
	}
	if session.Status != attendance.StatusCheckedIn {
		return attendance.SessionResponse{}, attendance.ErrSessionNotCheckedIn
	}

	checkoutTime, err := time.Parse(time.RFC3339, req.CheckoutTime)
	if err != nil {
		return attendance.SessionResponse{}, fmt.Errorf("failed to parse checkout time: %w", err)
	}
	checkoutTime = checkoutTime.UTC()

	siteData, shiftData, err := s.loadSiteAndShift(ctx, &session)
	if err != nil {
		return attendance.SessionResponse{}, err
	}

	session.CheckoutTime = &checkoutTime
	applyHours(&session, ComputeHours(session.CheckinTime, checkoutTime, siteData, shiftData, req.ApprovedOvertime))
	session.Status = attendance.StatusCompleted
	session.ManualCheckout = true
	session.ForgotCheckout = true
	session.OvertimeApproved = req.ApprovedOvertime
	session.OvertimeMultiplier = s.overtimeMultiplier(ctx, &session)

	if err := s.SessionRepository.Update(ctx, session); err != nil {
		return attendance.SessionResponse{}, fmt.Errorf("failed to update session: %w", err)
	}

	if err := s.SessionRepository.AppendEdit(ctx, attendance.SessionEdit{
		SessionID: session.ID,
		ActorID:   approverID,
		Action:    "manual_checkout",
		Note:      req.Reason,
	}); err != nil {
		slog.Warn("failed to append session edit", "session_id", session.ID, "error", err)
	}

	return mapSessionToResponse(session), nil
}

// SweepAbandonedSessions implements attendance.SessionService. Idempotent:
// the query only ever selects still-checked-in sessions, so an overlapping
// or repeated run finds nothing left to close.
func (s *SessionServiceImpl) SweepAbandonedSessions(ctx context.Context) (attendance.SweepResult, error) {
	now := time.Now().UTC()
	from, _ := sessionWindow(now)
	cutoff := now.Add(-s.staleAfter)

	stale, err := s.SessionRepository.GetStaleOpenSessions(ctx, from, cutoff)
	if err != nil {
		return attendance.SweepResult{}, fmt.Errorf("failed to get stale sessions: %w", err)
	}

	result := attendance.SweepResult{Scanned: len(stale), Errors: make(map[string]string)}

	for i := range stale {
		session := stale[i]
		if err := s.autoClose(ctx, &session); err != nil {
			result.Failed++
			result.Errors[session.ID] = err.Error()
			slog.Error("failed to auto-close session", "session_id", session.ID, "user_id", session.UserID, "error", err)
			continue
		}
		result.Completed++
	}

	if len(result.Errors) == 0 {
		result.Errors = nil
	}
	return result, nil
}

func (s *SessionServiceImpl) autoClose(ctx context.Context, session *attendance.Session) error {
	siteData, shiftData, err := s.loadSiteAndShift(ctx, session)
	if err != nil {
		return err
	}

	checkout := defaultCheckoutTime(session, shiftData)

	session.CheckoutTime = &checkout
	applyHours(session, ComputeHours(session.CheckinTime, checkout, siteData, shiftData, false))
	session.Status = attendance.StatusCompleted
	session.AutoCheckout = true
	session.ForgotCheckout = true

	if err := s.SessionRepository.Update(ctx, *session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	if err := s.SessionRepository.AppendEdit(ctx, attendance.SessionEdit{
		SessionID: session.ID,
		ActorID:   attendance.SystemActor,
		Action:    "auto_checkout",
		Note:      fmt.Sprintf("no checkout detected, session closed at %s", checkout.Format(time.RFC3339)),
	}); err != nil {
		slog.Warn("failed to append session edit", "session_id", session.ID, "error", err)
	}

	return nil
}

// defaultCheckoutTime picks the checkout instant for an abandoned session:
// the shift end mapped onto the check-in date (next day when the shift
// wraps), 18:00 on the check-in date without a shift, and check-in+8h when
// even that precedes the check-in.
func defaultCheckoutTime(session *attendance.Session, shift *site.Shift) time.Time {
	checkin := session.CheckinTime

	var checkout time.Time
	if shift != nil {
		checkout = anchorClock(checkin, shift.End)
		if shift.End.Hour()*60+shift.End.Minute() < shift.Start.Hour()*60+shift.Start.Minute() {
			checkout = checkout.Add(24 * time.Hour)
		}
	} else {
		checkout = time.Date(checkin.Year(), checkin.Month(), checkin.Day(), 18, 0, 0, 0, checkin.Location())
	}

	if checkout.Before(checkin) {
		checkout = checkin.Add(8 * time.Hour)
	}
	return checkout
}

// GetSession implements attendance.SessionService.
func (s *SessionServiceImpl) GetSession(ctx context.Context, id string) (attendance.SessionResponse, error) {
	userID, role, err := identityFromContext(ctx)
	if err != nil {
		return attendance.SessionResponse{}, err
	}

	session, err := s.SessionRepository.GetByID(ctx, id)
	if err != nil {
		return attendance.SessionResponse{}, err
	}

	viewer := user.User{ID: userID, Role: role}
	if session.UserID != userID && !viewer.IsHR() {
		return attendance.SessionResponse{}, user.ErrPermissionDenied
	}

	return mapSessionToResponse(session), nil
}

// GetSessionEdits implements attendance.SessionService.
func (s *SessionServiceImpl) GetSessionEdits(ctx context.Context, id string) ([]attendance.SessionEdit, error) {
	userID, role, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	session, err := s.SessionRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	viewer := user.User{ID: userID, Role: role}
	if session.UserID != userID && !viewer.IsHR() {
		return nil, user.ErrPermissionDenied
	}

	return s.SessionRepository.ListEdits(ctx, id)
}

// ListSessions implements attendance.SessionService.
func (s *SessionServiceImpl) ListSessions(ctx context.Context, filter attendance.SessionFilter) (attendance.ListSessionsResponse, error) {
	_, role, err := identityFromContext(ctx)
	if err != nil {
		return attendance.ListSessionsResponse{}, err
	}
	viewer := user.User{Role: role}
	if !viewer.IsHR() {
		return attendance.ListSessionsResponse{}, user.ErrPermissionDenied
	}

	filter.Normalize()
	return s.listSessions(ctx, filter)
}

// GetMySessions implements attendance.SessionService.
func (s *SessionServiceImpl) GetMySessions(ctx context.Context, filter attendance.SessionFilter) (attendance.ListSessionsResponse, error) {
	userID, _, err := identityFromContext(ctx)
	if err != nil {
		return attendance.ListSessionsResponse{}, err
	}

	filter.UserID = userID
	filter.Normalize()
	return s.listSessions(ctx, filter)
}

func (s *SessionServiceImpl) listSessions(ctx context.Context, filter attendance.SessionFilter) (attendance.ListSessionsResponse, error) {
	sessions, total, err := s.SessionRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListSessionsResponse{}, fmt.Errorf("failed to list sessions: %w", err)
	}

	responses := make([]attendance.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, mapSessionToResponse(session))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))

	return attendance.ListSessionsResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Sessions:   responses,
	}, nil
}

func (s *SessionServiceImpl) loadSiteAndShift(ctx context.Context, session *attendance.Session) (*site.Site, *site.Shift, error) {
	if session.SiteID == nil {
		return nil, nil, nil
	}

	siteData, err := s.SiteRepository.GetByID(ctx, *session.SiteID)
	if err != nil {
		if errors.Is(err, site.ErrSiteNotFound) {
			return nil, nil, site.ErrSiteNotFound
		}
		return nil, nil, fmt.Errorf("failed to get site: %w", err)
	}

	var shiftData *site.Shift
	if session.ShiftID != nil {
		shiftData = siteData.ShiftByID(*session.ShiftID)
		if shiftData == nil {
			return nil, nil, site.ErrShiftNotFound
		}
	}
	return &siteData, shiftData, nil
}

// overtimeMultiplier consults the holiday calendar for a finished session.
// The session owner's role decides which multiplier applies.
func (s *SessionServiceImpl) overtimeMultiplier(ctx context.Context, session *attendance.Session) float64 {
	if session.OvertimeHours <= 0 {
		return 1
	}

	h, err := s.HolidayRepository.GetByDate(ctx, session.Date)
	if err != nil {
		slog.Warn("failed to look up holiday calendar", "date", session.Date.Format("2006-01-02"), "error", err)
		return 1
	}
	if h == nil {
		return 1
	}

	owner, err := s.UserRepository.GetByID(ctx, session.UserID)
	if err != nil {
		slog.Warn("failed to get session owner", "user_id", session.UserID, "error", err)
		return 1
	}

	siteID := ""
	if session.SiteID != nil {
		siteID = *session.SiteID
	}
	role := string(owner.Role)
	if !h.AppliesTo(siteID, role) {
		return 1
	}
	return h.MultiplierFor(role)
}

func applyHours(session *attendance.Session, hours HoursResult) {
	session.TotalHours = hours.TotalHours
	session.RegularHours = hours.RegularHours
	session.OvertimeHours = hours.OvertimeHours
	session.BreakHours = hours.BreakHours
	session.IsLate = hours.IsLate
	session.LateMinutes = hours.LateMinutes
	session.IsEarlyCheckout = hours.IsEarlyCheckout
	session.IsOvernight = hours.IsOvernight
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format(time.RFC3339)
	return &format
}

// mapSessionToResponse converts a Session entity to SessionResponse
func mapSessionToResponse(session attendance.Session) attendance.SessionResponse {
	var userName string
	if session.UserName != nil {
		userName = *session.UserName
	}

	return attendance.SessionResponse{
		ID:                 session.ID,
		UserID:             session.UserID,
		UserName:           userName,
		Date:               session.Date.Format("2006-01-02"),
		SiteID:             session.SiteID,
		SiteName:           session.SiteName,
		ShiftID:            session.ShiftID,
		CheckinType:        string(session.CheckinType),
		CheckinTime:        session.CheckinTime.Format(time.RFC3339),
		CheckoutTime:       timePtrToString(session.CheckoutTime),
		Status:             string(session.Status),
		RegularHours:       session.RegularHours,
		OvertimeHours:      session.OvertimeHours,
		BreakHours:         session.BreakHours,
		TotalHours:         session.TotalHours,
		IsLate:             session.IsLate,
		LateMinutes:        session.LateMinutes,
		IsEarlyCheckout:    session.IsEarlyCheckout,
		IsOvernight:        session.IsOvernight,
		OvertimeMultiplier: session.OvertimeMultiplier,
		AutoCheckout:       session.AutoCheckout,
		ManualCheckout:     session.ManualCheckout,
		ForgotCheckout:     session.ForgotCheckout,
		OvertimeApproved:   session.OvertimeApproved,
	}
}
