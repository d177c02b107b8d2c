package user

import "time"

// Role is the organisational role held by an employee profile.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleHR       Role = "HR"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleHR, RoleManager, RoleEmployee}

// ParseRole returns the role named by s, if it is one of the known roles.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// IsPrivileged reports whether the role may see and act on other employees' records.
func (r Role) IsPrivileged() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleManager:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsVerified   bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Join
	EmployeeID *string
	Role       *Role
}

// CanLogin reports whether the account finished email verification.
func (u *User) CanLogin() bool {
	return u.IsVerified && u.IsActive
}
