package extract

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// midnightPlaceholder is what a block with no real time tends to normalize to
const midnightPlaceholder = "12:00 AM"

type timeCandidate struct {
	hour   int // 0-23
	minute int
	pos    int
}

// NormalizeTime converts raw time text to canonical "H:MM AM/PM".
// Ranges keep their start; timezone notes and parentheticals are ignored.
// Returns "" when no time is found or the result is exactly midnight.
func (e *Engine) NormalizeTime(raw string) string {
	s := e.tables.Parenthetical().ReplaceAllString(raw, " ")
	s = e.tables.Timezone().ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if loc := e.tables.RangeSeparator().FindStringIndex(s); loc != nil && loc[0] > 0 {
		s = s[:loc[0]]
	}

	cands := e.timeCandidates(s)
	if len(cands) == 0 {
		return ""
	}

	best := cands[0]
	for _, c := range cands[1:] {
		if plausibility(c.hour) > plausibility(best.hour) {
			best = c
		}
	}

	out := formatClock(best.hour, best.minute)
	if out == midnightPlaceholder {
		return ""
	}
	return out
}

// timeCandidates collects (hour, minute) pairs from every pattern family,
// ordered by position. Earlier families claim their span first so "2:30 pm"
// is not also read as "30 pm" or a bare "2:30".
func (e *Engine) timeCandidates(s string) []timeCandidate {
	var cands []timeCandidate
	var taken [][2]int

	claim := func(start, end, hour, minute int) {
		for _, t := range taken {
			if start < t[1] && t[0] < end {
				return
			}
		}
		taken = append(taken, [2]int{start, end})
		cands = append(cands, timeCandidate{hour: hour, minute: minute, pos: start})
	}

	for _, m := range e.tables.TimeColonAMPM().FindAllStringSubmatchIndex(s, -1) {
		hour, _ := strconv.Atoi(s[m[2]:m[3]])
		minute, _ := strconv.Atoi(s[m[4]:m[5]])
		if h, ok := to24(hour, s[m[6]:m[7]]); ok {
			claim(m[0], m[1], h, minute)
		}
	}

	for _, m := range e.tables.TimeCompact().FindAllStringSubmatchIndex(s, -1) {
		digits := s[m[2]:m[3]]
		n, _ := strconv.Atoi(digits)
		hour, minute := n, 0
		if len(digits) > 2 {
			hour, minute = n/100, n%100
		}
		if minute > 59 {
			continue
		}
		if h, ok := to24(hour, s[m[4]:m[5]]); ok {
			claim(m[0], m[1], h, minute)
		}
	}

	for _, m := range e.tables.TimeKeyword().FindAllStringSubmatchIndex(s, -1) {
		if strings.EqualFold(s[m[2]:m[3]], "noon") {
			claim(m[0], m[1], 12, 0)
		} else {
			claim(m[0], m[1], 0, 0)
		}
	}

	for _, m := range e.tables.Time24().FindAllStringSubmatchIndex(s, -1) {
		hour, _ := strconv.Atoi(s[m[2]:m[3]])
		minute, _ := strconv.Atoi(s[m[4]:m[5]])
		claim(m[0], m[1], afternoonBias(hour), minute)
	}

	if len(cands) == 0 {
		if m := e.tables.BareHour().FindStringSubmatchIndex(s); m != nil {
			hour, _ := strconv.Atoi(s[m[2]:m[3]])
			if hour <= 23 {
				claim(m[2], m[3], afternoonBias(hour), 0)
			}
		}
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].pos < cands[j].pos })
	return cands
}

// to24 converts a 12-hour clock reading to 0-23
func to24(hour int, meridiem string) (int, bool) {
	if hour < 1 || hour > 12 {
		return 0, false
	}
	pm := strings.EqualFold(meridiem, "p")
	switch {
	case hour == 12 && !pm:
		return 0, true
	case hour == 12 && pm:
		return 12, true
	case pm:
		return hour + 12, true
	}
	return hour, true
}

// afternoonBias reads an unmarked hour 1-6 as PM; talks rarely start before 7am
func afternoonBias(hour int) int {
	if hour >= 1 && hour <= 6 {
		return hour + 12
	}
	return hour
}

func plausibility(hour int) int {
	switch {
	case hour >= 8 && hour <= 20:
		return 3
	case hour >= 7 && hour <= 21:
		return 2
	case hour >= 6 && hour <= 22:
		return 1
	}
	return 0
}

func formatClock(hour, minute int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, minute, suffix)
}
