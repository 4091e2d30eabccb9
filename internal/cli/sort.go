package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/campus-events/internal/calendar"
	"github.com/pfrederiksen/campus-events/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate        SortOrder = "date"
	SortByInstitution SortOrder = "institution"
	SortByTitle       SortOrder = "title"
)

// sortRecords sorts records based on the specified sort order
func sortRecords(records []*event.Record, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(records, func(i, j int) bool {
			return compareByDate(records[i], records[j])
		})
	case SortByInstitution:
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].Institution != records[j].Institution {
				return records[i].Institution < records[j].Institution
			}
			// If institutions are equal, sort by date
			return compareByDate(records[i], records[j])
		})
	case SortByTitle:
		sort.SliceStable(records, func(i, j int) bool {
			ti, tj := strings.ToLower(records[i].Title), strings.ToLower(records[j].Title)
			if ti != tj {
				return ti < tj
			}
			// If titles are equal, sort by date
			return compareByDate(records[i], records[j])
		})
	}
}

// compareByDate compares two records by date then start time.
// Returns true if record i should come before record j.
func compareByDate(i, j *event.Record) bool {
	dateI := event.ParseDate(i.Date)
	dateJ := event.ParseDate(j.Date)

	// If only one date is valid, put the valid one first
	if dateI.IsZero() != dateJ.IsZero() {
		return !dateI.IsZero()
	}
	if !dateI.Equal(dateJ) {
		return dateI.Before(dateJ)
	}

	// Same day: timed events in order, then all-day ones
	startI, okI := i.StartTime(calendar.Eastern)
	startJ, okJ := j.StartTime(calendar.Eastern)
	if okI != okJ {
		return okI
	}
	if okI && !startI.Equal(startJ) {
		return startI.Before(startJ)
	}

	return strings.ToLower(i.Title) < strings.ToLower(j.Title)
}
