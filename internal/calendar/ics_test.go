package calendar

import (
	"strings"
	"testing"

	"github.com/pfrederiksen/campus-events/internal/event"
)

func sampleRecord() *event.Record {
	rec := event.NewRecord("Protein Folding at Scale", "2025-03-05", "https://www.mit.edu/events")
	rec.Time = "2:00 PM"
	rec.Location = "Building 10, Room 250"
	rec.Institution = "MIT"
	rec.Categories = []string{"biology"}
	rec.URL = "https://www.mit.edu/events/protein-folding"
	return rec
}

func TestGenerateICS(t *testing.T) {
	rec := sampleRecord()
	ics := GenerateICS(rec)

	requiredFields := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Campus Events//campus-events//EN",
		"BEGIN:VEVENT",
		"UID:" + rec.Fingerprint().Key() + "@campus-events",
		"DTSTAMP:",
		// 2:00 PM Eastern Standard Time
		"DTSTART:20250305T190000Z",
		"DTEND:20250305T200000Z",
		"SUMMARY:Protein Folding at Scale",
		"LOCATION:Building 10\\, Room 250", // Comma is escaped
		"CATEGORIES:biology",
		"URL:https://www.mit.edu/events/protein-folding",
		"STATUS:CONFIRMED",
		"END:VEVENT",
		"END:VCALENDAR",
	}

	for _, field := range requiredFields {
		if !strings.Contains(ics, field) {
			t.Errorf("ICS missing required field: %s", field)
		}
	}

	// Check that lines end with \r\n
	if !strings.HasSuffix(ics, "END:VCALENDAR\r\n") {
		t.Error("ICS should use \\r\\n line endings")
	}
}

func TestGenerateICS_AllDayWhenTimeUnknown(t *testing.T) {
	rec := sampleRecord()
	rec.Time = ""

	ics := GenerateICS(rec)

	if !strings.Contains(ics, "DTSTART;VALUE=DATE:20250305\r\n") {
		t.Error("Expected all-day DTSTART")
	}
	if !strings.Contains(ics, "DTEND;VALUE=DATE:20250306\r\n") {
		t.Error("Expected all-day DTEND on the following day")
	}
}

func TestGenerateICS_SpecialCharacters(t *testing.T) {
	rec := sampleRecord()
	rec.Title = "Test Event; With, Special\\Characters\nAnd Newlines"

	ics := GenerateICS(rec)

	if !strings.Contains(ics, "SUMMARY:Test Event\\; With\\, Special\\\\Characters\\nAnd Newlines") {
		t.Errorf("Special characters should be escaped in SUMMARY:\n%s", ics)
	}
}

func TestGenerateICS_FoldsLongLines(t *testing.T) {
	rec := sampleRecord()
	rec.Description = strings.Repeat("Prof. Müller on protein design. ", 10)

	ics := GenerateICS(rec)

	for _, line := range strings.Split(ics, "\r\n") {
		if len(line) > 75 {
			t.Errorf("Line exceeds 75 octets (%d): %q", len(line), line)
		}
	}
	if !strings.Contains(ics, "\r\n ") {
		t.Error("Expected folded continuation lines")
	}

	// Unfolding restores the original content
	unfolded := strings.ReplaceAll(ics, "\r\n ", "")
	if !strings.Contains(unfolded, "Prof. Müller on protein design. Prof. Müller") {
		t.Error("Unfolded description is corrupted")
	}
}

func TestGenerateBulkICS(t *testing.T) {
	records := []*event.Record{
		event.NewRecord("Protein Folding at Scale", "2025-03-05", "https://www.mit.edu/events"),
		event.NewRecord("Robotics in the Wild", "2025-03-12", "https://www.bu.edu/cs/events"),
		event.NewRecord("Cellular Aging and Repair", "2025-04-01", "https://biology.harvard.edu/calendar"),
	}

	ics := GenerateBulkICS(records, "Boston Science Events")

	if !strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n") || !strings.HasSuffix(ics, "END:VCALENDAR\r\n") {
		t.Error("Calendar should be wrapped in VCALENDAR")
	}
	if !strings.Contains(ics, "X-WR-CALNAME:Boston Science Events") {
		t.Error("Missing calendar name")
	}

	if n := strings.Count(ics, "BEGIN:VEVENT"); n != 3 {
		t.Errorf("Expected 3 BEGIN:VEVENT, got %d", n)
	}
	if n := strings.Count(ics, "END:VEVENT"); n != 3 {
		t.Errorf("Expected 3 END:VEVENT, got %d", n)
	}

	for _, rec := range records {
		uid := "UID:" + rec.Fingerprint().Key() + "@campus-events"
		if !strings.Contains(ics, uid) {
			t.Errorf("Missing UID for record: %s", rec.Title)
		}
	}
}

func TestGenerateBulkICS_EmptyRecords(t *testing.T) {
	if ics := GenerateBulkICS([]*event.Record{}, "Test Calendar"); ics != "" {
		t.Errorf("Expected empty string for no records, got %q", ics)
	}
}
