package leave

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

type Type string

const (
	TypeAnnual    Type = "annual"
	TypeSick      Type = "sick"
	TypeCasual    Type = "casual"
	TypeMaternity Type = "maternity"
	TypePaternity Type = "paternity"
	TypeUnpaid    Type = "unpaid"
)

// Types lists every leave type an employee can request.
var Types = []Type{TypeAnnual, TypeSick, TypeCasual, TypeMaternity, TypePaternity, TypeUnpaid}

func ParseType(s string) (Type, bool) {
	for _, t := range Types {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Label is the display form used in messages, e.g. "Annual".
func (t Type) Label() string {
	if t == "" {
		return "Leave"
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type LeaveRequest struct {
	ID               string
	EmployeeID       string
	LeaveType        Type
	StartDate        civil.Date
	EndDate          civil.Date
	Reason           string
	Status           Status
	NotificationDate *civil.Date
	ApprovedBy       *string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Join
	EmployeeName *string
}

// IsPending reports whether the request still awaits a decision.
func (l *LeaveRequest) IsPending() bool {
	return l.Status == StatusPending
}

// TotalDays counts the calendar days covered, both ends inclusive.
func (l *LeaveRequest) TotalDays() int {
	return l.EndDate.DaysSince(l.StartDate) + 1
}
