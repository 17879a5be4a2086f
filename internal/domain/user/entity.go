package user

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"    // Full access, quota administration, year-end carry-over
	RoleHR       Role = "hr"       // Can approve leave/overtime, manual checkout
	RoleEmployee Role = "employee" // Regular employee
)

type User struct {
	ID           string
	Email        string
	PasswordHash *string
	FullName     string
	Role         Role

	// Sites the user may check in at, in catalog order.
	AllowedSiteIDs []string

	// Field staff may check in away from any site.
	AllowOffsiteCheckin bool

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin checks if user is an administrator
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsHR checks if user is HR or an administrator
func (u *User) IsHR() bool {
	return u.Role == RoleHR || u.Role == RoleAdmin
}

// CanApprove checks if user can approve leave requests and overtime
func (u *User) CanApprove() bool {
	return u.IsHR()
}

// CanManageQuota checks if user can set leave quota totals
func (u *User) CanManageQuota() bool {
	return u.IsHR()
}
