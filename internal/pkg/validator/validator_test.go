package validator

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"test@example.com", "user.name+1@domain.co", "a@b.cd"}
	invalid := []string{"test@", "@example.com", "test@.com", "test@com", "test@domain", " ", ""}
	for _, email := range valid {
		if !IsValidEmail(email) {
			t.Errorf("IsValidEmail(%q) = false, want true", email)
		}
	}
	for _, email := range invalid {
		if IsValidEmail(email) {
			t.Errorf("IsValidEmail(%q) = true, want false", email)
		}
	}
}

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", // valid UUIDv7
		"0188D0F2-7B8C-7B4A-8A2B-6B8B8B8B8B8B", // valid UUIDv7 (uppercase)
	}
	invalid := []string{
		"123e4567-e89b-12d3-a456-426614174000", // not v7
		"0188d0f27b8c7b4a8a2b6b8b8b8b8b8b",     // missing dashes
		"g188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", // invalid hex
		"",
	}
	for _, uuid := range valid {
		if !IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = false, want true", uuid)
		}
	}
	for _, uuid := range invalid {
		if IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = true, want false", uuid)
		}
	}
}

func TestIsValidPhoneNumber(t *testing.T) {
	valid := []string{"9812345678", "9712345678", "9612345678", "981-234-5678"}
	invalid := []string{"9912345678", "981234567", "98123456789", "0812345678", "abc", ""}
	for _, p := range valid {
		if !IsValidPhoneNumber(p) {
			t.Errorf("IsValidPhoneNumber(%q) = false, want true", p)
		}
	}
	for _, p := range invalid {
		if IsValidPhoneNumber(p) {
			t.Errorf("IsValidPhoneNumber(%q) = true, want false", p)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2023-01-01", "2000-12-31", "2024-02-29"}
	invalid := []string{"2023-13-01", "2023-02-30", "01-01-2023", ""}
	for _, s := range valid {
		if _, ok := IsValidDate(s); !ok {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if _, ok := IsValidDate(s); ok {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestIsValidTimeOfDay(t *testing.T) {
	got, ok := IsValidTimeOfDay("09:30")
	if !ok || got != (civil.Time{Hour: 9, Minute: 30}) {
		t.Errorf("IsValidTimeOfDay(09:30) = %v, %v", got, ok)
	}
	got, ok = IsValidTimeOfDay("17:00:15")
	if !ok || got != (civil.Time{Hour: 17, Second: 15}) {
		t.Errorf("IsValidTimeOfDay(17:00:15) = %v, %v", got, ok)
	}
	for _, s := range []string{"25:00", "9am", "", "12:60"} {
		if _, ok := IsValidTimeOfDay(s); ok {
			t.Errorf("IsValidTimeOfDay(%q) = true, want false", s)
		}
	}
}

func TestParseInstant(t *testing.T) {
	loc := time.FixedZone("NPT", 5*3600+45*60)

	zoned, ok := ParseInstant("2024-03-01T09:00:00Z", loc)
	if !ok || !zoned.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseInstant(zoned) = %v, %v", zoned, ok)
	}

	naive, ok := ParseInstant("2024-03-01 09:00:00", loc)
	if !ok || !naive.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, loc)) {
		t.Errorf("ParseInstant(naive) = %v, %v", naive, ok)
	}

	if _, ok := ParseInstant("yesterday", loc); ok {
		t.Error("ParseInstant(yesterday) = true, want false")
	}
}

func TestValidationErrorsToMapJoinsSameField(t *testing.T) {
	var errs ValidationErrors
	errs.Add("start_date", "first.")
	errs.Add("start_date", "second.")
	errs.Add("end_date", "third.")

	m := errs.ToMap()
	if m["start_date"] != "first. second." {
		t.Errorf("start_date = %q", m["start_date"])
	}
	if m["end_date"] != "third." {
		t.Errorf("end_date = %q", m["end_date"])
	}
}

func TestValidationErrorsOrNil(t *testing.T) {
	var errs ValidationErrors
	if errs.OrNil() != nil {
		t.Error("empty ValidationErrors.OrNil() should be nil")
	}
	errs.Add("x", "bad")
	if errs.OrNil() == nil {
		t.Error("non-empty ValidationErrors.OrNil() should not be nil")
	}
}
