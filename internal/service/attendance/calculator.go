package attendance

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/department"
	"github.com/shopspring/decimal"
)

var (
	fullDayHours = decimal.NewFromInt(8)
	halfDayHours = decimal.NewFromInt(4)
	nanosPerHour = decimal.NewFromInt(int64(time.Hour))
)

// Computed holds the derived fields of an attendance record.
type Computed struct {
	Status         attendance.Status
	HoursWorked    decimal.Decimal
	LateMinutes    int
	OvertimeHours  decimal.Decimal
	CheckOut       *time.Time
	IsAutoCheckout bool
}

// Calculator derives status, hours and lateness of a record from its
// timestamps and the department shift. It holds no state besides the zone
// shift times are read in, so one instance may be shared freely.
type Calculator struct {
	loc *time.Location
}

func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{loc: loc}
}

// Location is the zone shift boundaries and calendar days are read in.
func (c *Calculator) Location() *time.Location {
	return c.loc
}

// Today is the current calendar date in the calculator's zone.
func (c *Calculator) Today(now time.Time) civil.Date {
	return civil.DateOf(now.In(c.loc))
}

// Compute evaluates rec against dept at instant now. A nil dept means the
// employee has no department. rec is not modified.
func (c *Calculator) Compute(rec attendance.Attendance, dept *department.Department, now time.Time) Computed {
	out := Computed{
		Status:         rec.Status,
		HoursWorked:    rec.HoursWorked,
		LateMinutes:    rec.LateMinutes,
		OvertimeHours:  rec.OvertimeHours,
		CheckOut:       c.normalize(rec.CheckOut),
		IsAutoCheckout: rec.IsAutoCheckout,
	}

	// Leave, holidays and weekends keep their status and count no hours
	if rec.Status.IsNonWorked() {
		out.HoursWorked = decimal.Zero
		return out
	}

	if rec.CheckIn == nil || dept == nil {
		out.Status = attendance.StatusAbsent
		out.HoursWorked = decimal.Zero
		return out
	}

	checkIn := rec.CheckIn.In(c.loc)
	shiftStart, shiftEnd := c.shiftWindow(rec.Date, *dept)

	switch {
	case out.CheckOut != nil:
		out.HoursWorked = hoursBetween(checkIn, *out.CheckOut)
	case checkIn.Before(shiftEnd) && now.After(shiftEnd):
		// Forgotten check-out: close the day at the end of the shift
		out.CheckOut = &shiftEnd
		out.IsAutoCheckout = true
		out.HoursWorked = hoursBetween(checkIn, shiftEnd)
	default:
		// Shift still running, or the check-in came after it ended and
		// stays open until a real check-out
		out.HoursWorked = decimal.Zero
	}

	out.Status = classify(out.HoursWorked)
	out.LateMinutes = lateMinutes(checkIn, shiftStart, dept.GraceMinutes)
	out.OvertimeHours = decimal.Zero

	return out
}

// Recompute returns a copy of rec with the derived fields replaced by Compute's result.
func (c *Calculator) Recompute(rec attendance.Attendance, dept *department.Department, now time.Time) attendance.Attendance {
	res := c.Compute(rec, dept, now)
	rec.Status = res.Status
	rec.HoursWorked = res.HoursWorked
	rec.LateMinutes = res.LateMinutes
	rec.OvertimeHours = res.OvertimeHours
	rec.CheckOut = res.CheckOut
	rec.IsAutoCheckout = res.IsAutoCheckout
	if rec.CheckIn != nil {
		rec.CheckIn = c.normalize(rec.CheckIn)
	}
	return rec
}

// AutoCheckoutAt reports the instant an open record gets closed at the end of
// its shift. It reports false when the record is not open, is a non-worked day, has
// no department, or was checked in at or after the shift end.
func (c *Calculator) AutoCheckoutAt(rec attendance.Attendance, dept *department.Department) (time.Time, bool) {
	if rec.Status.IsNonWorked() || rec.CheckIn == nil || rec.CheckOut != nil || dept == nil {
		return time.Time{}, false
	}
	_, shiftEnd := c.shiftWindow(rec.Date, *dept)
	if !rec.CheckIn.Before(shiftEnd) {
		return time.Time{}, false
	}
	return shiftEnd, true
}

func (c *Calculator) shiftWindow(date civil.Date, dept department.Department) (start, end time.Time) {
	start = civil.DateTime{Date: date, Time: dept.WorkStartTime}.In(c.loc)
	endDate := date
	if dept.EndsNextDay() {
		endDate = date.AddDays(1)
	}
	end = civil.DateTime{Date: endDate, Time: dept.WorkEndTime}.In(c.loc)
	return start, end
}

func (c *Calculator) normalize(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(c.loc)
	return &v
}

// hoursBetween is the elapsed time in hours, rounded half up to 2 places.
// Negative spans count as zero.
func hoursBetween(from, to time.Time) decimal.Decimal {
	d := to.Sub(from)
	if d <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(d)).DivRound(nanosPerHour, 2)
}

func classify(hours decimal.Decimal) attendance.Status {
	switch {
	case hours.GreaterThanOrEqual(fullDayHours):
		return attendance.StatusPresent
	case hours.GreaterThanOrEqual(halfDayHours):
		return attendance.StatusHalfDay
	default:
		return attendance.StatusAbsent
	}
}

func lateMinutes(checkIn, shiftStart time.Time, grace *int) int {
	if !checkIn.After(shiftStart) {
		return 0
	}
	late := int(checkIn.Sub(shiftStart) / time.Minute)
	if grace != nil && late <= *grace {
		return 0
	}
	return late
}
