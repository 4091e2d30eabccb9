package calendar

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // America/New_York on hosts without zoneinfo

	"github.com/pfrederiksen/campus-events/internal/event"
)

const (
	prodID = "-//Campus Events//campus-events//EN"
	// uidDomain qualifies record UIDs
	uidDomain = "campus-events"
	// DefaultDuration is assumed for timed events; listings rarely give an end
	DefaultDuration = time.Hour
	// maxLineOctets is the RFC 5545 content line limit before folding
	maxLineOctets = 75
)

// Eastern is the time zone listing times are read in
var Eastern = loadEastern()

func loadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}

// GenerateICS generates a single-event iCalendar (.ics) file for a record
func GenerateICS(rec *event.Record) string {
	return GenerateBulkICS([]*event.Record{rec}, "")
}

// GenerateBulkICS generates one calendar holding every record. Returns ""
// when there are no records.
func GenerateBulkICS(records []*event.Record, name string) string {
	if len(records) == 0 {
		return ""
	}

	var ics strings.Builder
	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:" + prodID + "\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if name != "" {
		writeLine(&ics, "X-WR-CALNAME:"+escapeICS(name))
	}

	stamp := formatICSTime(time.Now())
	for _, rec := range records {
		writeEvent(&ics, rec, stamp)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeEvent(ics *strings.Builder, rec *event.Record, stamp string) {
	ics.WriteString("BEGIN:VEVENT\r\n")

	// The fingerprint is stable across runs while the ID is store-local
	writeLine(ics, fmt.Sprintf("UID:%s@%s", rec.Fingerprint().Key(), uidDomain))
	writeLine(ics, "DTSTAMP:"+stamp)

	if start, ok := rec.StartTime(Eastern); ok {
		writeLine(ics, "DTSTART:"+formatICSTime(start))
		writeLine(ics, "DTEND:"+formatICSTime(start.Add(DefaultDuration)))
	} else if day := event.ParseDate(rec.Date); !day.IsZero() {
		// Unknown time: all-day event
		writeLine(ics, "DTSTART;VALUE=DATE:"+day.Format("20060102"))
		writeLine(ics, "DTEND;VALUE=DATE:"+day.AddDate(0, 0, 1).Format("20060102"))
	}

	writeLine(ics, "SUMMARY:"+escapeICS(rec.Title))

	var desc []string
	if rec.Institution != "" {
		desc = append(desc, "Institution: "+rec.Institution)
	}
	if len(rec.Categories) > 0 {
		desc = append(desc, "Topics: "+strings.Join(rec.Categories, ", "))
	}
	if rec.IsVirtual {
		desc = append(desc, "Virtual event")
	}
	if rec.RequiresRegistration {
		desc = append(desc, "Registration required")
	}
	if rec.Description != "" {
		desc = append(desc, "", rec.Description)
	}
	if len(desc) > 0 {
		writeLine(ics, "DESCRIPTION:"+escapeICS(strings.Join(desc, "\n")))
	}

	if rec.Location != "" {
		writeLine(ics, "LOCATION:"+escapeICS(rec.Location))
	}
	if len(rec.Categories) > 0 {
		cats := make([]string, len(rec.Categories))
		for i, c := range rec.Categories {
			cats[i] = escapeICS(c)
		}
		writeLine(ics, "CATEGORIES:"+strings.Join(cats, ","))
	}
	if rec.URL != "" {
		writeLine(ics, "URL:"+rec.URL)
	}

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// writeLine writes one content line, folded at 75 octets without
// splitting a UTF-8 sequence
func writeLine(ics *strings.Builder, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(line[cut]) {
			cut--
		}
		ics.WriteString(line[:cut])
		ics.WriteString("\r\n ")
		line = line[cut:]
		// Continuation lines lose one octet to the leading space
		limit = maxLineOctets - 1
	}
	ics.WriteString(line)
	ics.WriteString("\r\n")
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
