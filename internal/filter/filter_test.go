package filter

import (
	"testing"

	"github.com/pfrederiksen/campus-events/internal/event"
	"github.com/pfrederiksen/campus-events/internal/patterns"
)

func TestClassify(t *testing.T) {
	f := New(patterns.Default())

	tests := []struct {
		name     string
		title    string
		expected Reason
	}{
		{"denylist exact", "Contact Us", ReasonDenylist},
		{"denylist connect", "Connect with Us", ReasonDenylist},
		{"phone", "Call 617-555-0100 for details", ReasonPhone},
		{"email", "Questions? events@seas.harvard.edu", ReasonEmail},
		{"address", "77 Massachusetts Avenue, Cambridge MA", ReasonAddress},
		{"too short", "Seminar", ReasonShort},
		{"room code", "ROOM 32-123", ReasonCode},
		{"building code", "BLDG E25-111", ReasonCode},
		{"series", "Applied Math Colloquium Series", ReasonSeries},
		{"series lowercase", "the quantum seminar series 2025", ReasonSeries},
		{"empty", "   ", ReasonEmpty},
		{"real event", "Jane Doe (2:00pm–3:00pm, MIT Building 10)", ReasonNone},
		{"real title", "Protein Folding at Scale", ReasonNone},
		{"long all caps", "DISTINGUISHED LECTURE IN BIOLOGY", ReasonNone},
		{"short all caps title", "AI SAFETY WORKSHOP", ReasonNone},
		{"hyphenated code", "LAB-ANNEX WING", ReasonCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Classify(tt.title); got != tt.expected {
				t.Errorf("Classify(%q) = %q, expected %q", tt.title, got, tt.expected)
			}
		})
	}
}

func TestIsNonEventCoversContactShapes(t *testing.T) {
	f := New(patterns.Default())

	inputs := []string{
		"Contact Us",
		"Connect with Us",
		"Subscribe",
		"jane.doe@mit.edu",
		"someone@example.org",
		"617-253-1000",
		"212-555-0199",
		"Hi",
		"123456789",
	}

	for _, in := range inputs {
		if !f.IsNonEvent(in) {
			t.Errorf("expected %q to be classified as non-event", in)
		}
	}
}

func TestIsDateTimeText(t *testing.T) {
	f := New(patterns.Default())

	tests := []struct {
		text     string
		expected bool
	}{
		{"March 5, 2025", true},
		{"Wednesday, March 5, 2025 2:00pm–3:00pm", true},
		{"9/9/2025", true},
		{"2025-09-09", true},
		{"2:00 PM", true},
		{"2pm-4pm", true},
		{"noon", true},
		{"Mar 5 at 3", true},
		{"5 pm", true},
		{"at 14", true},
		{"Jane Doe", false},
		{"Protein Folding at Scale", false},
		{"May Lab Retreat", false},
		{"Jane Doe (2:00pm–3:00pm, MIT Building 10)", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := f.IsDateTimeText(tt.text); got != tt.expected {
				t.Errorf("IsDateTimeText(%q) = %v, expected %v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestSweep(t *testing.T) {
	f := New(patterns.Default())

	keep := event.NewRecord("Protein Folding at Scale", "2025-03-05", "https://mit.edu/events")
	keep.ID = 1
	nav := event.NewRecord("Contact Us", "2025-03-05", "https://mit.edu/events")
	nav.ID = 2
	date := event.NewRecord("March 5, 2025", "2025-03-05", "https://mit.edu/events")
	date.ID = 3
	series := event.NewRecord("Biology Seminar Series", "2025-03-05", "https://mit.edu/events")
	series.ID = 4

	rejected := f.Sweep([]*event.Record{keep, nav, date, series})
	if len(rejected) != 3 {
		t.Fatalf("expected 3 rejected records, got %d", len(rejected))
	}
	for _, r := range rejected {
		if r.ID == 1 {
			t.Error("real event should survive the sweep")
		}
	}

	// Sweeping the survivors again is a no-op
	if again := f.Sweep([]*event.Record{keep}); len(again) != 0 {
		t.Errorf("expected idempotent sweep, got %d rejections", len(again))
	}
}
