package event

import "time"

// DateLayout is the canonical record date format
const DateLayout = "2006-01-02"

// ParseDate parses a record Date into a time.Time at midnight UTC.
// Returns time.Time{} (zero value) if parsing fails.
func ParseDate(date string) time.Time {
	if date == "" {
		return time.Time{}
	}
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// StartTime combines the record Date and canonical Time into one instant in
// loc. ok is false when either part is missing or malformed.
func (r *Record) StartTime(loc *time.Location) (time.Time, bool) {
	day := ParseDate(r.Date)
	if day.IsZero() || r.Time == "" {
		return time.Time{}, false
	}
	clock, err := time.Parse("3:04 PM", r.Time)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), true
}

// IsPast checks if a record's date is before today.
// Returns false if the date cannot be parsed (safer default).
func (r *Record) IsPast(now time.Time) bool {
	parsed := ParseDate(r.Date)
	if parsed.IsZero() {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return parsed.Before(today)
}

// IsUpcoming checks if a record is today or later.
// Returns true if the date cannot be parsed.
func (r *Record) IsUpcoming(now time.Time) bool {
	return !r.IsPast(now)
}

// IsWithinDays checks if a record falls within N days from now.
// Returns true if days <= 0 (feature disabled) or date is unparseable.
func (r *Record) IsWithinDays(now time.Time, days int) bool {
	if days <= 0 {
		return true
	}
	parsed := ParseDate(r.Date)
	if parsed.IsZero() {
		return true
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !parsed.Before(today) && parsed.Before(today.AddDate(0, 0, days))
}
