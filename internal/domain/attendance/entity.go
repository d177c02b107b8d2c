package attendance

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent     Status = "present"
	StatusHalfDay     Status = "half_day"
	StatusOnLeave     Status = "on_leave"
	StatusUnpaidLeave Status = "unpaid_leave"
	StatusHoliday     Status = "holiday"
	StatusWeekend     Status = "weekend"
	StatusAbsent      Status = "absent"
)

// IsNonWorked reports whether the status marks a day that is not evaluated
// against the shift: leave, holidays and weekends.
func (s Status) IsNonWorked() bool {
	switch s {
	case StatusOnLeave, StatusUnpaidLeave, StatusHoliday, StatusWeekend:
		return true
	default:
		return false
	}
}

// ParseStatus returns the status named by s, if it is a known one.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPresent, StatusHalfDay, StatusOnLeave, StatusUnpaidLeave, StatusHoliday, StatusWeekend, StatusAbsent:
		return st, true
	default:
		return "", false
	}
}

// Attendance is one employee's record for one calendar day.
// Status (for worked days), HoursWorked, LateMinutes, OvertimeHours and
// IsAutoCheckout are derived and must be recomputed before every save.
type Attendance struct {
	ID             string
	EmployeeID     string
	Date           civil.Date
	CheckIn        *time.Time
	CheckOut       *time.Time
	Status         Status
	HoursWorked    decimal.Decimal
	LateMinutes    int
	OvertimeHours  decimal.Decimal
	Remarks        *string
	IsAutoCheckout bool
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Join
	EmployeeName *string
}
