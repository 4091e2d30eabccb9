package extract

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/campus-events/internal/classify"
	"github.com/pfrederiksen/campus-events/internal/event"
	"github.com/pfrederiksen/campus-events/internal/filter"
	"github.com/pfrederiksen/campus-events/internal/logger"
	"github.com/pfrederiksen/campus-events/internal/patterns"
)

// ErrNilDocument is returned when Extract is handed no document
var ErrNilDocument = errors.New("nil document")

// Rejection reasons recorded in metrics as extract.rejected.<reason>
const (
	RejectNoDate   = "no_date"
	RejectNonEvent = "non_event"
	RejectTitle    = "title"
)

// Engine extracts event records from parsed listing pages. An Engine is
// immutable after New and safe for concurrent use.
type Engine struct {
	tables   *patterns.Tables
	dates    []patterns.DatePattern
	filter   *filter.Filter
	cleaner  *filter.Cleaner
	keywords *classify.KeywordCategorizer
}

// New creates an Engine over the given pattern tables
func New(tables *patterns.Tables) *Engine {
	return &Engine{
		tables:   tables,
		dates:    tables.DatePatterns(),
		filter:   filter.New(tables),
		cleaner:  filter.NewCleaner(tables),
		keywords: classify.NewKeywordCategorizer(tables),
	}
}

// ExtractHTML parses r as HTML and extracts its records
func (e *Engine) ExtractHTML(r io.Reader, sourceURL string) ([]*event.Record, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return e.Extract(doc, sourceURL)
}

// Extract returns the event records found in doc. Candidates that fail
// validation are dropped without error; only a missing document fails.
// Records sharing a fingerprint within one page are collapsed to the first.
func (e *Engine) Extract(doc *goquery.Document, sourceURL string) ([]*event.Record, error) {
	if doc == nil || doc.Selection == nil || len(doc.Nodes) == 0 {
		return nil, ErrNilDocument
	}

	blocks := e.SelectCandidates(doc, sourceURL)
	logger.AddCounter("extract.blocks", int64(len(blocks)))

	records := make([]*event.Record, 0, len(blocks))
	seen := make(map[string]bool)

	for _, block := range blocks {
		rec, reason := e.Assemble(block)
		if rec == nil {
			logger.IncrCounter("extract.rejected." + reason)
			logger.Debug("Candidate dropped", logger.Fields{
				"source_url": sourceURL,
				"reason":     reason,
				"text":       truncate(block.Text, 80),
			})
			continue
		}

		key := rec.Fingerprint().Key()
		if seen[key] {
			logger.IncrCounter("extract.duplicate")
			continue
		}
		seen[key] = true
		records = append(records, rec)
	}

	logger.AddCounter("extract.records", int64(len(records)))
	return records, nil
}

// Assemble turns one block into a record. On rejection the record is nil
// and reason names the failed stage.
func (e *Engine) Assemble(block RawBlock) (rec *event.Record, reason string) {
	c, ok := e.Candidate(block)
	if !ok {
		return nil, RejectNoDate
	}

	if e.filter.IsNonEvent(c.Title) {
		return nil, RejectNonEvent
	}

	title, ok := e.cleaner.Resolve(c.Title, c.Description)
	if !ok {
		return nil, RejectTitle
	}
	// A promoted description sentence gets the same screening
	if title != c.Title && e.filter.IsNonEvent(title) {
		return nil, RejectNonEvent
	}

	rec = event.NewRecord(title, c.Date, block.SourceURL)
	rec.Time = c.Time
	rec.Location = c.Location
	rec.Description = c.Description
	if c.URL != "" {
		rec.URL = c.URL
	}
	rec.Institution = classify.Institution(e.tables, block.SourceURL)
	rec.Categories = e.keywords.Match(title + "\n" + c.Description)
	rec.IsVirtual = e.tables.Virtual().MatchString(block.Text)
	rec.RequiresRegistration = e.tables.Registration().MatchString(block.Text)

	return rec, ""
}

// Candidate pulls the raw fields out of a block. ok is false when the
// block carries no date.
func (e *Engine) Candidate(block RawBlock) (event.Candidate, bool) {
	m, ok := e.findDate(block.Text)
	if !ok {
		return event.Candidate{}, false
	}

	c := event.Candidate{
		Date:        m.ISO,
		Description: block.Text,
		URL:         eventURL(block),
		Speaker:     e.extractSpeaker(block),
	}

	title := c.Speaker
	if title == "" {
		title = e.extractLineTitle(block)
	}

	rawTime := ""
	tail, hasTail := e.splitDateLine(block.Text, m)
	if hasTail {
		rawTime = tail.rawTime
		if title != "" && !strings.Contains(title, tail.suffix) {
			title = fmt.Sprintf("%s (%s)", title, tail.suffix)
		}
	} else {
		rawTime = e.findRawTime(block.Text)
	}

	c.Title = title
	c.Time = e.NormalizeTime(rawTime)
	c.Location = e.extractLocation(block)
	if c.Location == "" && hasTail {
		c.Location = tail.location
	}

	return c, true
}

func truncate(s string, n int) string {
	s = singleLine(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
