package user

import "errors"

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrUserEmailExists         = errors.New("email already exists")
	ErrUsernameExists          = errors.New("username already exists")
	ErrPrivilegedRoleRequired  = errors.New("HR, admin or manager role required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)
