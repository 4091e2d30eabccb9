package filter

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pfrederiksen/campus-events/internal/patterns"
)

const (
	minPromotedLength = 10
	maxPromotedLength = 200
	// edge patterns can expose further date fragments; bound the passes
	maxCleanPasses = 4
)

const edgePunctuation = " \t\r\n-–—,;:|•·*~/"

var sentenceSplit = regexp.MustCompile(`[.!?]+\s+|\n+`)

// Cleaner strips date and time fragments from the edges of a title
type Cleaner struct {
	tables *patterns.Tables
	filter *Filter
}

// NewCleaner creates a Cleaner over the given pattern tables
func NewCleaner(tables *patterns.Tables) *Cleaner {
	return &Cleaner{tables: tables, filter: New(tables)}
}

// Clean removes leading and trailing date/time substrings and edge
// punctuation. The result may be empty.
func (c *Cleaner) Clean(title string) string {
	s := strings.Trim(title, edgePunctuation)

	for pass := 0; pass < maxCleanPasses; pass++ {
		before := s
		s = stripFirst(s, c.tables.LeadingDateTime())
		s = stripFirst(s, c.tables.TrailingDateTime())
		s = strings.Trim(s, edgePunctuation)
		if s == before {
			break
		}
	}

	return s
}

// Resolve cleans title and falls back to the description when the cleaned
// title is empty or still reads as a date/time. ok is false when no usable
// title could be recovered.
func (c *Cleaner) Resolve(title, description string) (string, bool) {
	cleaned := c.Clean(title)
	if cleaned != "" && !c.filter.IsDateTimeText(cleaned) {
		return cleaned, true
	}

	description = strings.TrimSpace(description)
	if description == "" || c.filter.IsDateTimeText(description) {
		return "", false
	}

	for _, sentence := range sentenceSplit.Split(description, -1) {
		candidate := c.Clean(sentence)
		n := utf8.RuneCountInString(candidate)
		if n < minPromotedLength || n > maxPromotedLength {
			continue
		}
		if c.filter.IsDateTimeText(candidate) {
			continue
		}
		return candidate, true
	}

	return "", false
}

func stripFirst(s string, res []*regexp.Regexp) string {
	for _, re := range res {
		if loc := re.FindStringIndex(s); loc != nil {
			return s[:loc[0]] + s[loc[1]:]
		}
	}
	return s
}
