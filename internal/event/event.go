package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Record is a canonical, deduplicated event
type Record struct {
	ID                   int64     `json:"id"`
	Title                string    `json:"title"`
	NormalizedTitle      string    `json:"normalized_title"` // matching only, never displayed
	Date                 string    `json:"date"`             // YYYY-MM-DD
	Time                 string    `json:"time"`             // "H:MM AM/PM" or empty
	Location             string    `json:"location,omitempty"`
	Description          string    `json:"description,omitempty"`
	URL                  string    `json:"url"`
	SourceURL            string    `json:"source_url"`
	Institution          string    `json:"institution"`
	Categories           []string  `json:"categories"`
	IsVirtual            bool      `json:"is_virtual"`
	RequiresRegistration bool      `json:"requires_registration"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Candidate is an unvalidated extraction result
type Candidate struct {
	Title       string
	Speaker     string
	Date        string
	Time        string
	Location    string
	Description string
	URL         string
}

// Fingerprint is the uniqueness key of a Record
type Fingerprint struct {
	NormalizedTitle string
	Date            string
	SourceURL       string
}

// Key returns a deterministic SHA1 digest of the fingerprint
func (f Fingerprint) Key() string {
	h := sha1.New()
	h.Write([]byte(f.NormalizedTitle + "|" + f.Date + "|" + f.SourceURL))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Fingerprint returns the record's identity triple. A record whose
// NormalizedTitle was never set is fingerprinted from its Title.
func (r *Record) Fingerprint() Fingerprint {
	norm := r.NormalizedTitle
	if norm == "" {
		norm = NormalizeTitle(r.Title)
	}
	return Fingerprint{
		NormalizedTitle: norm,
		Date:            r.Date,
		SourceURL:       r.SourceURL,
	}
}

// NewRecord builds a Record from a validated title, date and source URL.
// URL falls back to the source URL when empty.
func NewRecord(title, date, sourceURL string) *Record {
	return &Record{
		Title:           title,
		NormalizedTitle: NormalizeTitle(title),
		Date:            date,
		URL:             sourceURL,
		SourceURL:       sourceURL,
		Categories:      []string{},
	}
}

// Clone returns a deep copy of the record
func (r *Record) Clone() *Record {
	c := *r
	c.Categories = append([]string(nil), r.Categories...)
	return &c
}

// NormalizeTitle lowercases a title, collapses every run of punctuation
// and whitespace to a single space, and trims the result.
// NormalizeTitle(NormalizeTitle(x)) == NormalizeTitle(x).
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingSpace := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}

	return b.String()
}
