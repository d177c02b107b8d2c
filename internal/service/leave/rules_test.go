package leave

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = civil.Date{Year: 2024, Month: time.March, Day: 15}

func messages(errs validator.ValidationErrors) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Message)
	}
	return out
}

func TestValidate_BackdatedSickLeaveWithinLimit(t *testing.T) {
	engine := NewRuleEngine(leave.DefaultPolicies())

	errs := engine.Validate(ValidationInput{
		Type:      leave.TypeSick,
		StartDate: today.AddDays(-2),
		EndDate:   today,
		Today:     today,
	})

	assert.Empty(t, errs)
}

func TestValidate_SickLeaveBackdatedTooFar(t *testing.T) {
	engine := NewRuleEngine(leave.DefaultPolicies())

	errs := engine.Validate(ValidationInput{
		Type:      leave.TypeSick,
		StartDate: today.AddDays(-5),
		EndDate:   today,
		Today:     today,
	})

	require.Len(t, errs, 1)
	assert.Equal(t, "start_date", errs[0].Field)
	assert.Equal(t, "This leave type may be backdated up to 3 day(s). Currently backdated 5 day(s).", errs[0].Message)
}

func TestValidate_AnnualLeaveShortNotice(t *testing.T) {
	engine := NewRuleEngine(leave.DefaultPolicies())

	errs := engine.Validate(ValidationInput{
		Type:      leave.TypeAnnual,
		StartDate: today.AddDays(3),
		EndDate:   today.AddDays(5),
		Today:     today,
	})

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "requires at least 7 day(s) notice")
	assert.Contains(t, errs[0].Message, "Annual")
}

func TestValidate_NoticeCountsFromRequestDate(t *testing.T) {
	engine := NewRuleEngine(leave.DefaultPolicies())

	errs := engine.Validate(ValidationInput{
		Type:        leave.TypeAnnual,
		StartDate:   today.AddDays(3),
		EndDate:     today.AddDays(5),
		RequestDate: today.AddDays(-4),
		Today:       today,
	})

	assert.Empty(t, errs)
}

func TestValidate_MissingDates(t *testing.T) {
	engine := NewRuleEngine(leave.DefaultPolicies())

	for _, in := range []ValidationInput{
		{Type: leave.TypeAnnual, EndDate: today, Today: today},
		{Type: leave.TypeAnnual, StartDate: today, Today: today},
		{Type: leave.TypeAnnual, Today: today},
	} {
		errs := engine.Validate(in)
		require.Len(t, errs, 1)
		assert.Equal(t, "dates", errs[0].Field)
	}
}

func TestValidate_EndBeforeStartStopsEvaluation(t *testing.T) {
	engine := NewRuleEngine(leave.DefaultPolicies())

	// Would also break notice and retroactive rules if evaluation continued
	errs := engine.Validate(ValidationInput{
		Type:      leave.TypeAnnual,
		StartDate: today.AddDays(-1),
		EndDate:   today.AddDays(-3),
		Today:     today,
	})

	require.Len(t, errs, 1)
	assert.Equal(t, "end_date", errs[0].Field)
}

func TestValidate_SingleDayLeaveIsOrdered(t *testing.T) {
	engine := NewRuleEngine(leave.DefaultPolicies())

	errs := engine.Validate(ValidationInput{
		Type:      leave.TypeCasual,
		StartDate: today.AddDays(1),
		EndDate:   today.AddDays(1),
		Today:     today,
	})

	assert.Empty(t, errs)
}

func TestValidate_RetroactiveNotAllowedCollectsAllViolations(t *testing.T) {
	engine := NewRuleEngine(leave.DefaultPolicies())

	errs := engine.Validate(ValidationInput{
		Type:      leave.TypeCasual,
		StartDate: civil.Date{Year: 2024, Month: time.February, Day: 28},
		EndDate:   today,
		Today:     today,
	})

	msgs := messages(errs)
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[0], "Casual requires at least 1 day(s) notice")
	assert.Equal(t, "Retroactive start dates are not allowed for this leave type.", msgs[1])
	assert.Equal(t, "Start date cannot be before the first day of this month for this leave type.", msgs[2])
}

func TestValidate_BackdateBoundIgnoredWhenPastStartsForbidden(t *testing.T) {
	engine := NewRuleEngine(map[leave.Type]leave.Policy{
		leave.TypeCasual: {MinNoticeDays: 0, AllowPastStart: false, MaxBackdateDays: 10},
	})

	errs := engine.Validate(ValidationInput{
		Type:      leave.TypeCasual,
		StartDate: today.AddDays(-2),
		EndDate:   today,
		Today:     today,
	})

	require.Len(t, errs, 1)
	assert.Equal(t, "Retroactive start dates are not allowed for this leave type.", errs[0].Message)
}

func TestValidate_PastStartAllowedSkipsMonthBoundary(t *testing.T) {
	engine := NewRuleEngine(map[leave.Type]leave.Policy{
		leave.TypeSick: {AllowPastStart: true, MaxBackdateDays: 30},
	})

	errs := engine.Validate(ValidationInput{
		Type:      leave.TypeSick,
		StartDate: civil.Date{Year: 2024, Month: time.February, Day: 20},
		EndDate:   today,
		Today:     today,
	})

	assert.Empty(t, errs)
}

func TestValidate_FirstOfMonthIsNotBeforeMonth(t *testing.T) {
	engine := NewRuleEngine(map[leave.Type]leave.Policy{
		leave.TypeUnpaid: {AllowPastStart: true, MaxBackdateDays: 31},
		leave.TypeCasual: {},
	})
	first := civil.Date{Year: 2024, Month: time.March, Day: 1}

	errs := engine.Validate(ValidationInput{Type: leave.TypeCasual, StartDate: first, EndDate: today, Today: today})
	msgs := messages(errs)
	assert.NotContains(t, msgs, "Start date cannot be before the first day of this month for this leave type.")
	assert.Contains(t, msgs, "Retroactive start dates are not allowed for this leave type.")
}

func TestValidate_UnlistedTypeUsesZeroPolicy(t *testing.T) {
	engine := NewRuleEngine(map[leave.Type]leave.Policy{})

	assert.Empty(t, engine.Validate(ValidationInput{
		Type:      leave.TypeMaternity,
		StartDate: today,
		EndDate:   today.AddDays(90),
		Today:     today,
	}))

	errs := engine.Validate(ValidationInput{
		Type:      leave.TypeMaternity,
		StartDate: today.AddDays(-1),
		EndDate:   today,
		Today:     today,
	})
	require.Len(t, errs, 1)
	assert.Equal(t, "Retroactive start dates are not allowed for this leave type.", errs[0].Message)
}

func TestNewRuleEngine_CopiesPolicyTable(t *testing.T) {
	policies := map[leave.Type]leave.Policy{leave.TypeAnnual: {MinNoticeDays: 7}}
	engine := NewRuleEngine(policies)
	policies[leave.TypeAnnual] = leave.Policy{}

	errs := engine.Validate(ValidationInput{
		Type:      leave.TypeAnnual,
		StartDate: today.AddDays(1),
		EndDate:   today.AddDays(1),
		Today:     today,
	})
	assert.Len(t, errs, 1)
}

func TestDefaultPolicies_ChangesDoNotLeak(t *testing.T) {
	policies := leave.DefaultPolicies()
	policies[leave.TypeAnnual] = leave.Policy{AllowPastStart: true, MaxBackdateDays: 365}
	delete(policies, leave.TypeSick)

	fresh := leave.DefaultPolicies()
	assert.Equal(t, leave.Policy{MinNoticeDays: 7}, fresh[leave.TypeAnnual])
	assert.Equal(t, leave.Policy{AllowPastStart: true, MaxBackdateDays: 3}, fresh[leave.TypeSick])

	engine := NewRuleEngine(leave.DefaultPolicies())
	errs := engine.Validate(ValidationInput{
		Type:      leave.TypeAnnual,
		StartDate: today.AddDays(-1),
		EndDate:   today,
		Today:     today,
	})
	assert.NotEmpty(t, errs)
}
