package postgresql

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// newID returns a time-ordered UUIDv7 primary key.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// dateParam converts a calendar date into a value pgx encodes as DATE.
func dateParam(d civil.Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func nullableDateParam(d *civil.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := dateParam(*d)
	return &t
}

// dateOf reads back a DATE column scanned into time.Time.
func dateOf(t time.Time) civil.Date {
	return civil.Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func nullableDateOf(t *time.Time) *civil.Date {
	if t == nil {
		return nil
	}
	d := dateOf(*t)
	return &d
}
