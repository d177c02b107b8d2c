package validator

import (
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

// ToMap groups messages by field. Several violations on the same field are
// joined so none of them is lost in the response.
func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		if prev, ok := result[err.Field]; ok {
			result[err.Field] = prev + " " + err.Message
			continue
		}
		result[err.Field] = err.Message
	}
	return result
}

// Add appends a violation.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// OrNil returns nil when there are no violations so callers can return it as error.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email validation
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// UUIDv7 regex: version 7 (the 15th character must be '7'), all lowercase hex digits.
var uuidv7Regex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// UUIDv7 validation
func IsValidUUID(uuid string) bool {
	return uuidv7Regex.MatchString(strings.ToLower(uuid))
}

// Numeric validation
// Nepali mobile numbers: ten digits starting with 96, 97 or 98.
var phoneRegex = regexp.MustCompile(`^9[6-8]\d{8}$`)

// Phone number validation
func IsValidPhoneNumber(phone string) bool {
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	return phoneRegex.MatchString(phone)
}

// Username validation: 3-50 chars, A-Z, a-z, 0-9, ., _, -
var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{3,50}$`)

func IsValidUsername(username string) bool {
	return usernameRegex.MatchString(username)
}

// IsValidDate parses a "YYYY-MM-DD" calendar date.
func IsValidDate(dateStr string) (civil.Date, bool) {
	d, err := civil.ParseDate(dateStr)
	return d, err == nil
}

// IsValidTimeOfDay accepts "HH:MM" or "HH:MM:SS" wall clock times.
func IsValidTimeOfDay(s string) (civil.Time, bool) {
	if len(s) == len("15:04") {
		s += ":00"
	}
	t, err := civil.ParseTime(s)
	if err != nil || !t.IsValid() {
		return civil.Time{}, false
	}
	return t, true
}

// IsValidDateTime checks if a string is a valid ISO8601 timestamp.
// Accepts formats like: "2024-01-15T10:30:00Z" or "2024-01-15T10:30:00+07:00"
func IsValidDateTime(dateTimeStr string) (time.Time, bool) {
	// Try RFC3339 format (ISO8601 with timezone)
	t, err := time.Parse(time.RFC3339, dateTimeStr)
	if err == nil {
		return t, true
	}

	// Try RFC3339Nano format (with nanoseconds)
	t, err = time.Parse(time.RFC3339Nano, dateTimeStr)
	if err == nil {
		return t, true
	}

	return time.Time{}, false
}

// IsValidNaiveDateTime parses a wall clock timestamp without zone information,
// either "2006-01-02 15:04:05" or "2006-01-02T15:04:05".
func IsValidNaiveDateTime(s string) (civil.DateTime, bool) {
	s = strings.Replace(strings.TrimSpace(s), " ", "T", 1)
	dt, err := civil.ParseDateTime(s)
	if err != nil {
		return civil.DateTime{}, false
	}
	return dt, true
}

// ParseInstant accepts either a zoned timestamp or a naive one. Naive values
// are promoted to loc; zoned values keep their own offset.
func ParseInstant(s string, loc *time.Location) (time.Time, bool) {
	if t, ok := IsValidDateTime(s); ok {
		return t, true
	}
	if dt, ok := IsValidNaiveDateTime(s); ok {
		return dt.In(loc), true
	}
	return time.Time{}, false
}
