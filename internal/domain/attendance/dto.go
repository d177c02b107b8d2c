package attendance

import (
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type AttendanceResponse struct {
	ID             string          `json:"id"`
	EmployeeID     string          `json:"employee_id"`
	EmployeeName   *string         `json:"employee_name,omitempty"`
	Date           string          `json:"date"`
	CheckIn        *string         `json:"check_in"`
	CheckOut       *string         `json:"check_out"`
	Status         string          `json:"status"`
	HoursWorked    decimal.Decimal `json:"hours_worked"`
	LateMinutes    int             `json:"late_minutes"`
	OvertimeHours  decimal.Decimal `json:"overtime_hours"`
	IsAutoCheckout bool            `json:"is_auto_checkout"`
	Remarks        *string         `json:"remarks"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
}

// MyAttendanceRecord is the compact per-day row of the personal summary.
type MyAttendanceRecord struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	LateMinutes int    `json:"late_minutes"`
}

type AttendanceSummary struct {
	TotalPresent  int `json:"total_present"`
	TotalHalfDays int `json:"total_half_days"`
	TotalAbsent   int `json:"total_absent"`
	TotalLate     int `json:"total_late"`
}

type MyAttendanceResponse struct {
	From    string               `json:"from"`
	To      string               `json:"to"`
	Summary AttendanceSummary    `json:"summary"`
	Records []MyAttendanceRecord `json:"records"`
}

// OverallAttendanceResponse lists every record of the window, newest first.
type OverallAttendanceResponse struct {
	From    string
	To      string
	Records []AttendanceResponse
}

// UpdateAttendanceRequest corrects a record. Timestamps may carry an offset
// (RFC3339) or be naive wall clock values, read in the organisation's zone.
type UpdateAttendanceRequest struct {
	ID            string  `json:"-"`
	CheckIn       *string `json:"check_in,omitempty"`
	CheckOut      *string `json:"check_out,omitempty"`
	ClearCheckOut bool    `json:"clear_check_out,omitempty"`
	// Status accepts a non-worked status, or "" to return the day to normal evaluation.
	Status  *string `json:"status,omitempty"`
	Remarks *string `json:"remarks,omitempty"`
}

func (r *UpdateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ID) {
		errs.Add("id", "invalid attendance id")
	}
	if r.CheckIn != nil && !isTimestamp(*r.CheckIn) {
		errs.Add("check_in", "check_in must be an ISO8601 timestamp")
	}
	if r.CheckOut != nil && !isTimestamp(*r.CheckOut) {
		errs.Add("check_out", "check_out must be an ISO8601 timestamp")
	}
	if r.ClearCheckOut && r.CheckOut != nil {
		errs.Add("check_out", "check_out cannot be set and cleared at once")
	}
	if r.Status != nil && *r.Status != "" {
		if st, ok := ParseStatus(*r.Status); !ok || !st.IsNonWorked() {
			errs.Add("status", "status must be one of on_leave, unpaid_leave, holiday, weekend")
		}
	}

	return errs.OrNil()
}

// MarkAttendanceRequest pre-creates a non-worked day such as leave or a holiday.
type MarkAttendanceRequest struct {
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	Status     string  `json:"status"`
	Remarks    *string `json:"remarks,omitempty"`
}

func (r *MarkAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "invalid employee id")
	}
	if validator.IsEmpty(r.Date) {
		errs.Add("date", "date is required")
	} else if _, ok := validator.IsValidDate(r.Date); !ok {
		errs.Add("date", "date must be YYYY-MM-DD")
	}
	if st, ok := ParseStatus(r.Status); !ok || !st.IsNonWorked() {
		errs.Add("status", "status must be one of on_leave, unpaid_leave, holiday, weekend")
	}

	return errs.OrNil()
}

func isTimestamp(s string) bool {
	if _, ok := validator.IsValidDateTime(s); ok {
		return true
	}
	_, ok := validator.IsValidNaiveDateTime(s)
	return ok
}
