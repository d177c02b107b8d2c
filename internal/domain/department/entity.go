package department

import (
	"time"

	"cloud.google.com/go/civil"
)

// Defaults applied when a department is created without shift settings.
var (
	DefaultWorkStartTime      = civil.Time{Hour: 9}
	DefaultWorkEndTime        = civil.Time{Hour: 17}
	DefaultWorkingDaysPerWeek = 6
)

// Department owns the shift window used to evaluate its employees' attendance.
// Start and end are wall clock times in the organisation's canonical zone.
type Department struct {
	ID                 string
	Name               string
	Description        string
	WorkStartTime      civil.Time
	WorkEndTime        civil.Time
	WorkingDaysPerWeek int
	// GraceMinutes of lateness forgiven at check-in; nil means no grace.
	GraceMinutes *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EndsNextDay reports whether the shift ends on the calendar day after it starts.
func (d Department) EndsNextDay() bool {
	return secondsOfDay(d.WorkEndTime) <= secondsOfDay(d.WorkStartTime)
}

func secondsOfDay(t civil.Time) int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}
