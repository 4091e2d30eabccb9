package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pfrederiksen/campus-events/internal/event"
	"github.com/pfrederiksen/campus-events/internal/patterns"
)

const (
	// MinTitleLength is the shortest title accepted as an event
	MinTitleLength = 10
	// MaxCodeLength bounds all-caps strings treated as room or building codes
	MaxCodeLength = 20
)

// Reason explains why a title was rejected
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonEmpty    Reason = "empty"
	ReasonDenylist Reason = "denylist"
	ReasonPhone    Reason = "phone"
	ReasonEmail    Reason = "email"
	ReasonAddress  Reason = "address"
	ReasonShort    Reason = "too_short"
	ReasonCode     Reason = "code"
	ReasonSeries   Reason = "series"
	ReasonDateTime Reason = "date_time"
)

// Filter classifies titles as navigation/contact noise or real events
type Filter struct {
	tables *patterns.Tables
}

// New creates a Filter over the given pattern tables
func New(tables *patterns.Tables) *Filter {
	return &Filter{tables: tables}
}

// Classify returns the first rule that rejects title, or ReasonNone
func (f *Filter) Classify(title string) Reason {
	trimmed := strings.TrimSpace(title)

	switch {
	case trimmed == "":
		return ReasonEmpty
	case f.tables.IsDenylisted(trimmed):
		return ReasonDenylist
	case f.tables.Phone().MatchString(trimmed):
		return ReasonPhone
	case f.tables.Email().MatchString(trimmed):
		return ReasonEmail
	case f.tables.Address().MatchString(trimmed):
		return ReasonAddress
	case utf8.RuneCountInString(trimmed) < MinTitleLength:
		return ReasonShort
	case utf8.RuneCountInString(trimmed) < MaxCodeLength && isCodeLike(trimmed):
		return ReasonCode
	case f.tables.Series().MatchString(trimmed):
		return ReasonSeries
	}

	return ReasonNone
}

// IsNonEvent reports whether title is noise rather than an event title
func (f *Filter) IsNonEvent(title string) bool {
	return f.Classify(title) != ReasonNone
}

// IsDateTimeText reports whether text is a date or time posing as a title.
// Text qualifies if it is entirely a date/time expression, or if it has at
// most three words of which at least 70% are date/time vocabulary or digits.
func (f *Filter) IsDateTimeText(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}

	for _, re := range f.tables.DateTimeTitles() {
		if re.MatchString(trimmed) {
			return true
		}
	}

	words := strings.Fields(trimmed)
	if len(words) > 3 {
		return false
	}

	hits := 0
	for _, w := range words {
		if isDateTimeWord(w) {
			hits++
		}
	}
	return float64(hits) >= 0.7*float64(len(words))
}

// Sweep returns the stored records whose titles no longer pass the filter.
// Running Sweep again over the surviving records returns nothing.
func (f *Filter) Sweep(records []*event.Record) []*event.Record {
	var rejected []*event.Record
	for _, r := range records {
		if f.IsNonEvent(r.Title) || f.IsDateTimeText(r.Title) {
			rejected = append(rejected, r)
		}
	}
	return rejected
}

// isCodeLike reports strings made only of uppercase letters, digits,
// punctuation and spaces that carry at least one digit or hyphen, e.g.
// "ROOM 32-123". "AI SAFETY WORKSHOP" is a title, not a code.
func isCodeLike(s string) bool {
	marked := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '-':
			marked = true
		case unicode.IsUpper(r), unicode.IsPunct(r), unicode.IsSpace(r), unicode.IsSymbol(r):
		default:
			return false
		}
	}
	return marked
}

var dateTimeVocabulary = map[string]bool{
	"jan": true, "january": true, "feb": true, "february": true,
	"mar": true, "march": true, "apr": true, "april": true, "may": true,
	"jun": true, "june": true, "jul": true, "july": true,
	"aug": true, "august": true, "sep": true, "sept": true, "september": true,
	"oct": true, "october": true, "nov": true, "november": true,
	"dec": true, "december": true,
	"am": true, "pm": true, "a.m": true, "p.m": true, "at": true, "@": true,
}

func isDateTimeWord(w string) bool {
	w = strings.ToLower(strings.Trim(w, ",.;:()"))
	if w == "" {
		return false
	}
	if dateTimeVocabulary[w] {
		return true
	}
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
