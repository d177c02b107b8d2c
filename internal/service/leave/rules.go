package leave

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// ValidationInput is everything the date rules look at. Zero dates mean "not supplied".
type ValidationInput struct {
	Type      leave.Type
	StartDate civil.Date
	EndDate   civil.Date
	// RequestDate is when the employee gave notice; defaults to Today.
	RequestDate civil.Date
	Today       civil.Date
}

// RuleEngine checks leave dates against the per-type policy table.
type RuleEngine struct {
	policies leave.PolicyTable
}

func NewRuleEngine(policies map[leave.Type]leave.Policy) *RuleEngine {
	return &RuleEngine{policies: leave.NewPolicyTable(policies)}
}

// Validate returns every violation found, or an empty list. Missing or
// inverted dates stop evaluation; policy violations are all collected.
func (e *RuleEngine) Validate(in ValidationInput) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		errs.Add("dates", "start date and end date are required")
		return errs
	}
	if in.EndDate.Before(in.StartDate) {
		errs.Add("end_date", "end date cannot be before start date")
		return errs
	}

	policy := e.policies.PolicyFor(in.Type)

	requestDate := in.RequestDate
	if requestDate.IsZero() {
		requestDate = in.Today
	}

	// Backdated starts with no notice requirement fall under the backdate rule only
	if policy.MinNoticeDays > 0 {
		notice := in.StartDate.DaysSince(requestDate)
		if notice < policy.MinNoticeDays {
			errs.Add("start_date", fmt.Sprintf("%s requires at least %d day(s) notice (given %d day(s)).",
				in.Type.Label(), policy.MinNoticeDays, notice))
		}
	}

	if in.StartDate.Before(in.Today) {
		if !policy.AllowPastStart {
			errs.Add("start_date", "Retroactive start dates are not allowed for this leave type.")
		} else if backdated := in.Today.DaysSince(in.StartDate); backdated > policy.MaxBackdateDays {
			errs.Add("start_date", fmt.Sprintf("This leave type may be backdated up to %d day(s). Currently backdated %d day(s).",
				policy.MaxBackdateDays, backdated))
		}
	}

	if !policy.AllowPastStart {
		firstOfMonth := civil.Date{Year: in.Today.Year, Month: in.Today.Month, Day: 1}
		if in.StartDate.Before(firstOfMonth) {
			errs.Add("start_date", "Start date cannot be before the first day of this month for this leave type.")
		}
	}

	return errs
}
