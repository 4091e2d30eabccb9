package patterns

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultVersion identifies the built-in pattern set
const DefaultVersion = "2025.09"

const (
	monthNames   = `Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?`
	weekdayNames = `Mon(?:day)?|Tue(?:s(?:day)?)?|Wed(?:nesday)?|Thu(?:r(?:s(?:day)?)?)?|Fri(?:day)?|Sat(?:urday)?|Sun(?:day)?`
	ampm         = `[ap]\.?\s?m\b\.?`
)

// DateLayout names the shape a date pattern recognizes
type DateLayout string

const (
	LayoutWeekdayMonthDayYear DateLayout = "weekday-month-day-year"
	LayoutMonthDayYear        DateLayout = "month-day-year"
	LayoutNumericMDY          DateLayout = "mm/dd/yyyy"
	LayoutISO                 DateLayout = "yyyy-mm-dd"
)

// DatePattern is one entry of the ordered date regex set. Every pattern
// exposes the named groups "month", "day" and "year".
type DatePattern struct {
	Layout DateLayout
	Re     *regexp.Regexp
}

// Institution maps domain substrings to an institution label
type Institution struct {
	Label string   `yaml:"label"`
	Match []string `yaml:"match"`
}

// Topic is a category label with its fallback keyword list
type Topic struct {
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
}

// File is the on-disk shape of a pattern override file.
// Any non-empty list replaces the corresponding built-in list.
type File struct {
	Version      string        `yaml:"version"`
	Denylist     []string      `yaml:"denylist"`
	Placeholders []string      `yaml:"placeholders"`
	Institutions []Institution `yaml:"institutions"`
	Topics       []Topic       `yaml:"topics"`
}

// Tables holds the compiled pattern set shared by every extraction component.
// A Tables value is never modified after construction and is safe for
// concurrent use.
type Tables struct {
	version      string
	denylist     map[string]struct{}
	placeholders []string
	institutions []Institution
	topics       []Topic

	dates          []DatePattern
	timeColonAMPM  *regexp.Regexp
	timeCompact    *regexp.Regexp
	time24         *regexp.Regexp
	timeKeyword    *regexp.Regexp
	bareHour       *regexp.Regexp
	timezone       *regexp.Regexp
	parenthetical  *regexp.Regexp
	rangeSeparator *regexp.Regexp
	timeRange      *regexp.Regexp

	phone   *regexp.Regexp
	email   *regexp.Regexp
	address *regexp.Regexp
	series  *regexp.Regexp

	locationLabel *regexp.Regexp
	virtual       *regexp.Regexp
	registration  *regexp.Regexp

	dateTimeTitles []*regexp.Regexp
	leadingDate    []*regexp.Regexp
	trailingDate   []*regexp.Regexp
}

// Default returns the built-in pattern tables
func Default() *Tables {
	return build(File{})
}

// Load reads a YAML override file and merges it over the built-in tables.
// An empty path returns Default().
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pattern file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing pattern file: %w", err)
	}

	for _, inst := range f.Institutions {
		if inst.Label == "" || len(inst.Match) == 0 {
			return nil, fmt.Errorf("institution entry needs a label and at least one match")
		}
	}
	for _, topic := range f.Topics {
		if topic.Label == "" {
			return nil, fmt.Errorf("topic entry needs a label")
		}
	}

	return build(f), nil
}

func build(f File) *Tables {
	t := &Tables{
		version:      DefaultVersion,
		denylist:     make(map[string]struct{}),
		placeholders: defaultPlaceholders,
		institutions: defaultInstitutions,
		topics:       defaultTopics,
	}

	if f.Version != "" {
		t.version = f.Version
	}

	denylist := defaultDenylist
	if len(f.Denylist) > 0 {
		denylist = f.Denylist
	}
	for _, s := range denylist {
		t.denylist[s] = struct{}{}
	}

	if len(f.Placeholders) > 0 {
		t.placeholders = f.Placeholders
	}
	if len(f.Institutions) > 0 {
		t.institutions = f.Institutions
	}
	if len(f.Topics) > 0 {
		t.topics = f.Topics
	}

	// Lowercase keyword lists once so lookups stay allocation free
	placeholders := make([]string, len(t.placeholders))
	for i, p := range t.placeholders {
		placeholders[i] = strings.ToLower(strings.TrimSpace(p))
	}
	t.placeholders = placeholders

	topics := make([]Topic, len(t.topics))
	for i, topic := range t.topics {
		kw := make([]string, len(topic.Keywords))
		for j, k := range topic.Keywords {
			kw[j] = strings.ToLower(k)
		}
		topics[i] = Topic{Label: topic.Label, Keywords: kw}
	}
	t.topics = topics

	institutions := make([]Institution, len(t.institutions))
	for i, inst := range t.institutions {
		match := make([]string, len(inst.Match))
		for j, m := range inst.Match {
			match[j] = strings.ToLower(m)
		}
		institutions[i] = Institution{Label: inst.Label, Match: match}
	}
	t.institutions = institutions

	t.compile()
	return t
}

func (t *Tables) compile() {
	t.dates = []DatePattern{
		{
			Layout: LayoutWeekdayMonthDayYear,
			Re: regexp.MustCompile(`(?i)\b(?:` + weekdayNames + `)\.?,?\s+(?P<month>` + monthNames +
				`)\.?\s+(?P<day>\d{1,2})(?:st|nd|rd|th)?,?\s+(?P<year>\d{4})\b`),
		},
		{
			Layout: LayoutMonthDayYear,
			Re: regexp.MustCompile(`(?i)\b(?P<month>` + monthNames +
				`)\.?\s+(?P<day>\d{1,2})(?:st|nd|rd|th)?,?\s+(?P<year>\d{4})\b`),
		},
		{
			Layout: LayoutNumericMDY,
			Re:     regexp.MustCompile(`\b(?P<month>\d{1,2})/(?P<day>\d{1,2})/(?P<year>\d{4})\b`),
		},
		{
			Layout: LayoutISO,
			Re:     regexp.MustCompile(`\b(?P<year>\d{4})-(?P<month>\d{2})-(?P<day>\d{2})\b`),
		},
	}

	t.timeColonAMPM = regexp.MustCompile(`(?i)\b(\d{1,2}):([0-5]\d)\s*([ap])\.?\s?m\b\.?`)
	t.timeCompact = regexp.MustCompile(`(?i)\b(\d{1,4})\s*([ap])\.?\s?m\b\.?`)
	t.time24 = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	t.timeKeyword = regexp.MustCompile(`(?i)\b(noon|midnight)\b`)
	t.bareHour = regexp.MustCompile(`(?i)^\s*(?:(?:from|at|start(?:s|ing)?\s+at)\s+)?(\d{1,2})\s*$`)
	t.timezone = regexp.MustCompile(`(?i)\b(?:E[SD]?T|Eastern(?:\s+(?:Standard|Daylight))?(?:\s+Time)?|Boston\s+Time)\b`)
	t.parenthetical = regexp.MustCompile(`\([^)]*\)`)
	t.rangeSeparator = regexp.MustCompile(`(?i)\s*(?:[-–—]|\bto\b|\buntil\b)\s*`)
	t.timeRange = regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*(?:` + ampm + `)?\s*(?:[-–—]|to)\s*\d{1,2}(?::\d{2})?\s*` + ampm +
		`|\b\d{1,2}(?::\d{2})?\s*` + ampm +
		`|\b\d{1,2}:\d{2}\b(?:\s*(?:[-–—]|to)\s*\d{1,2}:\d{2}\b)?` +
		`|\bnoon\b`)

	t.phone = regexp.MustCompile(`\d{3}-\d{3}-\d{4}|\(\d{3}\)\s*\d{3}-\d{4}`)
	t.email = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	t.address = regexp.MustCompile(`^\d{1,5}\s+(?:[A-Z][A-Za-z.'\-]*\s+){1,4}(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln|Way|Place|Pl|Square|Sq|Parkway|Pkwy)\b`)
	t.series = regexp.MustCompile(`(?i)\b(?:seminar|colloquium|workshop)\s+series\b`)

	t.locationLabel = regexp.MustCompile(`(?i)^\s*(?:location|where|venue|place|room)\s*:\s*(.+?)\s*$`)
	t.virtual = regexp.MustCompile(`(?i)\b(?:zoom|virtual|online|webinar|livestream(?:ed)?|live[- ]stream(?:ed)?|hybrid)\b`)
	t.registration = regexp.MustCompile(`(?i)\b(?:register|registration|rsvp|tickets?|sign[- ]up)\b`)

	date := `(?:(?:` + weekdayNames + `)\.?,?\s+)?(?:(?:` + monthNames + `)\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?|\d{1,2}/\d{1,2}(?:/\d{2,4})?|\d{4}-\d{2}-\d{2})`
	clock := `(?:\d{1,2}(?::\d{2})?(?:\s*` + ampm + `|\b)|noon|midnight)`
	clockRange := clock + `(?:\s*(?:[-–—]|to)\s*` + clock + `)?`
	sep := `\s*(?:[-–—|,:@]|\bat\b)?\s*`

	t.dateTimeTitles = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*` + date + `(?:` + sep + clockRange + `)?\s*$`),
		regexp.MustCompile(`(?i)^\s*(?:` + weekdayNames + `)\.?\s*$`),
		regexp.MustCompile(`(?i)^\s*(?:` + monthNames + `)\.?(?:\s+\d{4})?\s*$`),
		regexp.MustCompile(`(?i)^\s*\d{1,2}(?::\d{2})?\s*` + ampm + `(?:\s*(?:[-–—]|to)\s*` + clock + `)?\s*$`),
		regexp.MustCompile(`(?i)^\s*\d{1,2}:\d{2}(?:\s*(?:[-–—]|to)\s*` + clock + `)?\s*$`),
		regexp.MustCompile(`(?i)^\s*(?:noon|midnight)\s*$`),
	}

	// Anchored forms stripped by the title cleaner, most specific first
	t.leadingDate = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*` + date + sep + clockRange + `\s*(?:[-–—|:,]\s*)?`),
		regexp.MustCompile(`(?i)^\s*` + date + `\s*(?:[-–—|:,]\s*)?`),
		regexp.MustCompile(`(?i)^\s*\d{1,2}(?::\d{2})?\s*` + ampm + `(?:\s*(?:[-–—]|to)\s*` + clock + `)?\s*(?:[-–—|:,]\s*)?`),
	}
	t.trailingDate = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s*(?:[-–—|:,]\s*)?` + date + sep + clockRange + `\s*$`),
		regexp.MustCompile(`(?i)\s*(?:[-–—|:,]\s*)?` + date + `\s*$`),
		regexp.MustCompile(`(?i)\s*(?:[-–—|:,@]\s*|\bat\s+)?\d{1,2}(?::\d{2})?\s*` + ampm + `(?:\s*(?:[-–—]|to)\s*` + clock + `)?\s*$`),
	}
}

// Version returns the identifier of the loaded pattern set
func (t *Tables) Version() string { return t.version }

// DatePatterns returns the date regex set in priority order
func (t *Tables) DatePatterns() []DatePattern {
	out := make([]DatePattern, len(t.dates))
	copy(out, t.dates)
	return out
}

// TimeColonAMPM matches "2:30 PM", "10:00a.m."
func (t *Tables) TimeColonAMPM() *regexp.Regexp { return t.timeColonAMPM }

// TimeCompact matches "2pm", "1030am"
func (t *Tables) TimeCompact() *regexp.Regexp { return t.timeCompact }

// Time24 matches a bare "HH:MM"
func (t *Tables) Time24() *regexp.Regexp { return t.time24 }

// TimeKeyword matches "noon" and "midnight"
func (t *Tables) TimeKeyword() *regexp.Regexp { return t.timeKeyword }

// BareHour matches a lone hour number such as "2" or "from 3"
func (t *Tables) BareHour() *regexp.Regexp { return t.bareHour }

// Timezone matches Eastern timezone annotations
func (t *Tables) Timezone() *regexp.Regexp { return t.timezone }

// Parenthetical matches "( ... )" asides
func (t *Tables) Parenthetical() *regexp.Regexp { return t.parenthetical }

// RangeSeparator matches the separator between a start and end time
func (t *Tables) RangeSeparator() *regexp.Regexp { return t.rangeSeparator }

// TimeRange locates a raw time or time range inside free text
func (t *Tables) TimeRange() *regexp.Regexp { return t.timeRange }

// Phone matches ###-###-#### phone numbers
func (t *Tables) Phone() *regexp.Regexp { return t.phone }

// Email matches email addresses
func (t *Tables) Email() *regexp.Regexp { return t.email }

// Address matches text starting with a street address
func (t *Tables) Address() *regexp.Regexp { return t.address }

// Series matches recurring series names
func (t *Tables) Series() *regexp.Regexp { return t.series }

// LocationLabel matches "Location: ..." style lines, capturing the value
func (t *Tables) LocationLabel() *regexp.Regexp { return t.locationLabel }

// Virtual matches online-attendance wording
func (t *Tables) Virtual() *regexp.Regexp { return t.virtual }

// Registration matches sign-up wording
func (t *Tables) Registration() *regexp.Regexp { return t.registration }

// DateTimeTitles returns full-string matchers for text that is only a date or time
func (t *Tables) DateTimeTitles() []*regexp.Regexp { return t.dateTimeTitles }

// LeadingDateTime returns patterns anchored at the start of a title
func (t *Tables) LeadingDateTime() []*regexp.Regexp { return t.leadingDate }

// TrailingDateTime returns patterns anchored at the end of a title
func (t *Tables) TrailingDateTime() []*regexp.Regexp { return t.trailingDate }

// IsDenylisted reports an exact, case-sensitive denylist hit
func (t *Tables) IsDenylisted(s string) bool {
	_, ok := t.denylist[s]
	return ok
}

// IsPlaceholder reports whether s is a "to be announced" style phrase
func (t *Tables) IsPlaceholder(s string) bool {
	norm := strings.ToLower(strings.Trim(strings.TrimSpace(s), ".:;,!-–— "))
	if norm == "" {
		return false
	}
	for _, p := range t.placeholders {
		if norm == p {
			return true
		}
		// multi-word phrases also count when embedded
		if strings.Contains(p, " ") && strings.Contains(norm, p) {
			return true
		}
	}
	return false
}

// Institutions returns the ordered institution table
func (t *Tables) Institutions() []Institution {
	out := make([]Institution, len(t.institutions))
	copy(out, t.institutions)
	return out
}

// Topics returns the topic keyword lists
func (t *Tables) Topics() []Topic {
	out := make([]Topic, len(t.topics))
	copy(out, t.topics)
	return out
}

// TopicLabels returns the allowed category labels in table order
func (t *Tables) TopicLabels() []string {
	labels := make([]string, len(t.topics))
	for i, topic := range t.topics {
		labels[i] = topic.Label
	}
	return labels
}

// MonthNumber maps a month name or abbreviation to 1..12, or 0 if unknown
func MonthNumber(name string) int {
	name = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), "."))
	if len(name) < 3 {
		return 0
	}
	return monthTable[name[:3]]
}

var monthTable = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}
