package extract

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pfrederiksen/campus-events/internal/patterns"
)

// dateMatch is a recognized date and where it sits in the text
type dateMatch struct {
	ISO    string
	Start  int
	End    int
	Layout patterns.DateLayout
}

// ExtractDate returns the ISO YYYY-MM-DD form of the first date found by
// pattern priority (not by position). ok is false when nothing matches.
func (e *Engine) ExtractDate(text string) (string, bool) {
	m, ok := e.findDate(text)
	if !ok {
		return "", false
	}
	return m.ISO, true
}

func (e *Engine) hasDate(text string) bool {
	_, ok := e.findDate(text)
	return ok
}

func (e *Engine) findDate(text string) (dateMatch, bool) {
	for _, p := range e.dates {
		monthIdx := p.Re.SubexpIndex("month")
		dayIdx := p.Re.SubexpIndex("day")
		yearIdx := p.Re.SubexpIndex("year")

		for _, loc := range p.Re.FindAllStringSubmatchIndex(text, -1) {
			month := text[loc[2*monthIdx]:loc[2*monthIdx+1]]
			day := text[loc[2*dayIdx]:loc[2*dayIdx+1]]
			year := text[loc[2*yearIdx]:loc[2*yearIdx+1]]

			iso, ok := normalizeDate(month, day, year)
			if !ok {
				continue
			}
			return dateMatch{ISO: iso, Start: loc[0], End: loc[1], Layout: p.Layout}, true
		}
	}
	return dateMatch{}, false
}

// removeDates deletes every recognized date substring from text
func (e *Engine) removeDates(text string) string {
	for _, p := range e.dates {
		text = p.Re.ReplaceAllString(text, " ")
	}
	return text
}

// normalizeDate validates the parts and formats them as YYYY-MM-DD.
// month may be numeric or a month name.
func normalizeDate(month, day, year string) (string, bool) {
	m, err := strconv.Atoi(month)
	if err != nil {
		m = patterns.MonthNumber(month)
	}
	d, errDay := strconv.Atoi(day)
	y, errYear := strconv.Atoi(year)
	if m < 1 || m > 12 || errDay != nil || errYear != nil {
		return "", false
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", false
	}

	return fmt.Sprintf("%04d-%02d-%02d", y, m, d), true
}
