package employee

import "errors"

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrPhoneExists       = errors.New("phone number already exists")
	ErrNoEmployeeProfile = errors.New("no employee profile linked to this account")
	ErrUnauthorized      = errors.New("unauthorized to access this employee")
)
