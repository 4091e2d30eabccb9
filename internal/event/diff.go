package event

import (
	"strings"
	"time"
)

// Change represents a field that differs between a stored record and a
// freshly extracted one with the same fingerprint
type Change struct {
	RecordID   int64     `json:"record_id"`
	Field      string    `json:"field"` // "title", "time", "location", "url", "institution", "categories", "new"
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	DetectedAt time.Time `json:"detected_at"`
}

// DetectChanges compares two records and returns detected changes
func DetectChanges(previous, current *Record) []*Change {
	now := time.Now().UTC()

	// If no previous record, this is a new record
	if previous == nil {
		return []*Change{
			{
				RecordID:   current.ID,
				Field:      "new",
				NewValue:   current.Title,
				DetectedAt: now,
			},
		}
	}

	var changes []*Change
	add := func(field, oldValue, newValue string) {
		if oldValue == newValue {
			return
		}
		changes = append(changes, &Change{
			RecordID:   previous.ID,
			Field:      field,
			OldValue:   oldValue,
			NewValue:   newValue,
			DetectedAt: now,
		})
	}

	add("title", previous.Title, current.Title)
	add("date", previous.Date, current.Date)
	add("time", previous.Time, current.Time)
	add("location", previous.Location, current.Location)
	add("url", previous.URL, current.URL)
	add("institution", previous.Institution, current.Institution)
	add("categories", strings.Join(previous.Categories, ","), strings.Join(current.Categories, ","))

	return changes
}
