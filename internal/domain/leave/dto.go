package leave

import (
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// CreateLeaveRequestRequest is submitted by an employee for themselves, or by a
// privileged user on behalf of EmployeeID.
type CreateLeaveRequestRequest struct {
	EmployeeID       *string `json:"employee_id,omitempty"`
	LeaveType        string  `json:"leave_type"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	Reason           string  `json:"reason"`
	NotificationDate *string `json:"notification_date,omitempty"`
}

// Validate checks field formats only; date presence, ordering and policy are
// checked by the rule engine once the dates are parsed.
func (r *CreateLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EmployeeID != nil && !validator.IsValidUUID(*r.EmployeeID) {
		errs.Add("employee_id", "invalid employee id")
	}
	if validator.IsEmpty(r.LeaveType) {
		errs.Add("leave_type", "leave_type is required")
	} else if _, ok := ParseType(r.LeaveType); !ok {
		errs.Add("leave_type", "invalid leave type")
	}
	validateDateFormat(&errs, "start_date", r.StartDate)
	validateDateFormat(&errs, "end_date", r.EndDate)
	if r.NotificationDate != nil {
		validateDateFormat(&errs, "notification_date", *r.NotificationDate)
	}

	return errs.OrNil()
}

type UpdateLeaveRequestRequest struct {
	ID               string  `json:"-"`
	LeaveType        *string `json:"leave_type,omitempty"`
	StartDate        *string `json:"start_date,omitempty"`
	EndDate          *string `json:"end_date,omitempty"`
	Reason           *string `json:"reason,omitempty"`
	NotificationDate *string `json:"notification_date,omitempty"`
}

func (r *UpdateLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ID) {
		errs.Add("id", "invalid leave request id")
	}
	if r.LeaveType != nil {
		if _, ok := ParseType(*r.LeaveType); !ok {
			errs.Add("leave_type", "invalid leave type")
		}
	}
	if r.StartDate != nil {
		validateDateFormat(&errs, "start_date", *r.StartDate)
	}
	if r.EndDate != nil {
		validateDateFormat(&errs, "end_date", *r.EndDate)
	}
	if r.NotificationDate != nil {
		validateDateFormat(&errs, "notification_date", *r.NotificationDate)
	}

	return errs.OrNil()
}

// validateDateFormat accepts an empty value; missing dates are a rule engine concern.
func validateDateFormat(errs *validator.ValidationErrors, field, value string) {
	if value == "" {
		return
	}
	if _, ok := validator.IsValidDate(value); !ok {
		errs.Add(field, field+" must be YYYY-MM-DD")
	}
}

type LeaveRequestResponse struct {
	ID               string  `json:"id"`
	EmployeeID       string  `json:"employee_id"`
	EmployeeName     *string `json:"employee_name,omitempty"`
	LeaveType        string  `json:"leave_type"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	TotalDays        int     `json:"total_days"`
	Reason           string  `json:"reason"`
	Status           string  `json:"status"`
	NotificationDate *string `json:"notification_date"`
	ApprovedBy       *string `json:"approved_by"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}
