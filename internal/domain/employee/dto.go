package employee

import (
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

type EmployeeResponse struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	Phone          string  `json:"phone"`
	Gender         *string `json:"gender"`
	DateOfBirth    string  `json:"date_of_birth"`
	DepartmentID   *string `json:"department_id"`
	DepartmentName *string `json:"department_name"`
	Designation    string  `json:"designation"`
	EmploymentType string  `json:"employment_type"`
	DateJoined     string  `json:"date_joined"`
	DateLeft       *string `json:"date_left"`
	IsActive       bool    `json:"is_active"`
	Location       string  `json:"location"`
	IsOffsite      bool    `json:"is_offsite"`
	IsWFHEnabled   bool    `json:"is_wfh_enabled"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// AssignDepartmentRequest moves an employee into a department, or out of any
// department when DepartmentID is nil.
type AssignDepartmentRequest struct {
	EmployeeID   string  `json:"-"`
	DepartmentID *string `json:"department_id"`
}

func (r *AssignDepartmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "invalid employee id")
	}
	if r.DepartmentID != nil && !validator.IsValidUUID(*r.DepartmentID) {
		errs.Add("department_id", "invalid department id")
	}

	return errs.OrNil()
}
