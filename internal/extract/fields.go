package extract

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	// minLineTitleLength is the length a plain text line must exceed to be a title
	minLineTitleLength = 10
	maxLocationLength  = 120
)

const fieldEdge = " \t-–—,;:|•·*~/"

// extractSpeaker returns the first emphasized text in the block that is
// not a placeholder, with any embedded date removed
func (e *Engine) extractSpeaker(block RawBlock) string {
	var speaker string
	block.Selection.Find("b, strong, em").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		raw := singleLine(renderText(sel))
		// "Location:" style labels are not speakers
		if strings.HasSuffix(raw, ":") {
			return true
		}
		text := strings.Trim(singleLine(e.removeDates(raw)), fieldEdge)
		if text == "" || e.tables.IsPlaceholder(text) {
			return true
		}
		speaker = text
		return false
	})
	return speaker
}

// extractLineTitle returns the first text line that is long enough and not
// a placeholder once dates are removed
func (e *Engine) extractLineTitle(block RawBlock) string {
	for _, line := range strings.Split(block.Text, "\n") {
		text := strings.Trim(singleLine(e.removeDates(line)), fieldEdge)
		if utf8.RuneCountInString(text) <= minLineTitleLength {
			continue
		}
		if e.tables.IsPlaceholder(text) {
			continue
		}
		return text
	}
	return ""
}

// dateLineTail holds what follows the date on the line that carries it
type dateLineTail struct {
	suffix   string // time plus optional location, as written, minus a leading "at"
	rawTime  string
	location string
}

// splitDateLine inspects the text after the date. A tail is reported only
// when it opens with a time or time range.
func (e *Engine) splitDateLine(text string, m dateMatch) (dateLineTail, bool) {
	rest := text[m.End:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.Trim(rest, fieldEdge)
	if rest == "" {
		return dateLineTail{}, false
	}

	loc := e.tables.TimeRange().FindStringIndex(rest)
	if loc == nil {
		return dateLineTail{}, false
	}
	if lead := strings.Trim(rest[:loc[0]], fieldEdge+"@"); lead != "" && !strings.EqualFold(lead, "at") {
		return dateLineTail{}, false
	}

	tail := dateLineTail{
		suffix:  rest[loc[0]:],
		rawTime: rest[loc[0]:loc[1]],
	}
	after := rest[loc[1]:]
	// "4:00 PM ET, Room 1" keeps the zone in the suffix but not the location
	if tz := e.tables.Timezone().FindStringIndex(after); tz != nil && strings.TrimSpace(after[:tz[0]]) == "" {
		after = after[tz[1]:]
	}
	if where := strings.Trim(after, fieldEdge); where != "" && utf8.RuneCountInString(where) <= maxLocationLength {
		tail.location = where
	}
	return tail, true
}

// findRawTime returns the first time or time range in the block text once
// dates have been removed
func (e *Engine) findRawTime(text string) string {
	return e.tables.TimeRange().FindString(e.removeDates(text))
}

// extractLocation prefers marked-up location elements, then labelled lines
func (e *Engine) extractLocation(block RawBlock) string {
	marked := block.Selection.Find(`[class*="location"], [class*="venue"], [class*="where"], address`).First()
	if marked.Length() > 0 {
		text := singleLine(renderText(marked))
		if m := e.tables.LocationLabel().FindStringSubmatch(text); m != nil {
			text = m[1]
		}
		if text != "" && utf8.RuneCountInString(text) <= maxLocationLength {
			return text
		}
	}

	for _, line := range strings.Split(block.Text, "\n") {
		if m := e.tables.LocationLabel().FindStringSubmatch(line); m != nil {
			if utf8.RuneCountInString(m[1]) <= maxLocationLength {
				return m[1]
			}
		}
	}

	return ""
}

// eventURL returns the first followable link in the block resolved against
// the source URL, or "" when there is none
func eventURL(block RawBlock) string {
	base, err := url.Parse(block.SourceURL)
	if err != nil {
		return ""
	}

	var found string
	block.Selection.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		lower := strings.ToLower(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") ||
			strings.HasPrefix(lower, "javascript:") {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		found = base.ResolveReference(ref).String()
		return false
	})

	// A self-link carries no extra information
	if found == block.SourceURL {
		return ""
	}
	return found
}
