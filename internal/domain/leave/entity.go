package leave

import (
	"time"
)

type LeaveType string

const (
	TypeSick     LeaveType = "sick"
	TypePersonal LeaveType = "personal"
	TypeVacation LeaveType = "vacation"
)

// Types lists all leave types in a stable order.
var Types = []LeaveType{TypeSick, TypePersonal, TypeVacation}

func (t LeaveType) Valid() bool {
	switch t {
	case TypeSick, TypePersonal, TypeVacation:
		return true
	}
	return false
}

// Policy is the per-type request rule set. RequiredNoticeDays of zero
// exempts the type from the auto-urgency rule.
type Policy struct {
	RequiredNoticeDays int
	UrgentMultiplier   float64
}

// Policies is the fixed policy table for the three leave types.
var Policies = map[LeaveType]Policy{
	TypeSick:     {RequiredNoticeDays: 0, UrgentMultiplier: 1},
	TypePersonal: {RequiredNoticeDays: 3, UrgentMultiplier: 2},
	TypeVacation: {RequiredNoticeDays: 7, UrgentMultiplier: 2},
}

// Balance is one leave type's yearly balance. Remaining is always
// total - used; Recalc re-establishes that after any mutation. Remaining may
// legally go negative when an admin lowers total below used.
type Balance struct {
	Total     float64
	Used      float64
	Remaining float64
}

func (b *Balance) Recalc() {
	b.Remaining = b.Total - b.Used
}

// QuotaYear is a user's per-year quota ledger row with three independent
// balances. Created as an all-zero sentinel by the explicit
// initialize-if-absent operation; real allotments are set later.
type QuotaYear struct {
	ID     string
	UserID string
	Year   int

	Sick     Balance
	Personal Balance
	Vacation Balance

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Balance returns a pointer to the balance for the given type.
func (q *QuotaYear) Balance(t LeaveType) *Balance {
	switch t {
	case TypeSick:
		return &q.Sick
	case TypePersonal:
		return &q.Personal
	case TypeVacation:
		return &q.Vacation
	}
	return nil
}

// QuotaHistory is one append-only ledger history entry.
type QuotaHistory struct {
	ID         string
	UserID     string
	Year       int
	Type       LeaveType
	TotalDelta float64
	UsedDelta  float64
	Reason     string
	ActorID    string
	CreatedAt  time.Time
}

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// Request is one leave request. Quota is not debited until approval;
// cancelling an approved request triggers a refund.
type Request struct {
	ID     string
	UserID string
	Type   LeaveType

	StartDate time.Time
	EndDate   time.Time

	// Inclusive calendar-day count, weekends included.
	TotalDays float64

	IsUrgent         bool
	UrgentMultiplier float64

	// TotalDays x UrgentMultiplier when urgent, else TotalDays. The amount
	// debited on approval and refunded on cancel-approved.
	ActualDays float64

	Status RequestStatus
	// Set when cancelling a previously-approved request.
	PreviousStatus *RequestStatus

	Reason        string
	AttachmentURL *string

	ApprovedBy     *string
	ApprovedAt     *time.Time
	RejectedBy     *string
	RejectedAt     *time.Time
	RejectedReason *string
	CancelledBy    *string
	CancelledAt    *time.Time
	CancelReason   *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// DTO / Join
	UserName *string
}

// CarryOverRule configures one type's annual carry-over.
type CarryOverRule struct {
	Enabled    bool
	MaxDays    *float64 // nil = unlimited
	Percentage float64  // 0-100
}

type CarryOverRules map[LeaveType]CarryOverRule

// CarryOverRun is the diagnostic execution marker for one (fromYear, toYear)
// batch. It does not block a second run.
type CarryOverRun struct {
	ID           string
	FromYear     int
	ToYear       int
	ExecutorID   string
	TotalUsers   int
	SuccessCount int
	FailedCount  int
	CreatedAt    time.Time
}

// CarryOverUserResult is one user's outcome inside a batch.
type CarryOverUserResult struct {
	UserID  string                `json:"user_id"`
	Carried map[LeaveType]float64 `json:"carried,omitempty"`
	Error   string                `json:"error,omitempty"`
}

func (r CarryOverUserResult) Failed() bool {
	return r.Error != ""
}

// CarryOverSummary is the batch result. The batch always completes; per-user
// failures are collected here.
type CarryOverSummary struct {
	TotalUsers   int                   `json:"total_users"`
	SuccessCount int                   `json:"success_count"`
	FailedCount  int                   `json:"failed_count"`
	Results      []CarryOverUserResult `json:"per_user_results"`
	// True when a run marker for the same year pair already existed.
	PreviouslyRun bool `json:"previously_run"`
}
