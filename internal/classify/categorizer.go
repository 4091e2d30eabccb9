package classify

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/pfrederiksen/campus-events/internal/logger"
	"github.com/pfrederiksen/campus-events/internal/patterns"
)

// ErrMalformedResponse is returned when a classification backend answers
// outside the allowed label set
var ErrMalformedResponse = errors.New("malformed classification response")

// Categorizer assigns zero or more topic labels to free text
type Categorizer interface {
	Categorize(ctx context.Context, text string) ([]string, error)
}

// KeywordCategorizer assigns a category when any of its keywords appears
// in the text. It never fails.
type KeywordCategorizer struct {
	tables *patterns.Tables
}

// NewKeywordCategorizer creates a keyword categorizer over the topic tables
func NewKeywordCategorizer(tables *patterns.Tables) *KeywordCategorizer {
	return &KeywordCategorizer{tables: tables}
}

// Match returns the sorted labels whose keywords occur in text
func (k *KeywordCategorizer) Match(text string) []string {
	lower := strings.ToLower(text)
	labels := []string{}

	for _, topic := range k.tables.Topics() {
		for _, kw := range topic.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				labels = append(labels, topic.Label)
				break
			}
		}
	}

	sort.Strings(labels)
	return labels
}

// Categorize implements Categorizer
func (k *KeywordCategorizer) Categorize(_ context.Context, text string) ([]string, error) {
	return k.Match(text), nil
}

// Fallback asks Primary first and answers from Secondary on any error.
// A nil Primary goes straight to Secondary.
type Fallback struct {
	Primary   Categorizer
	Secondary *KeywordCategorizer
}

// Categorize implements Categorizer. It never returns an error.
func (f *Fallback) Categorize(ctx context.Context, text string) ([]string, error) {
	if f.Primary != nil {
		labels, err := f.Primary.Categorize(ctx, text)
		if err == nil {
			return labels, nil
		}
		logger.Warn("Topic classification failed, using keyword fallback", logger.Fields{
			"text_length": len(text),
			"error":       err.Error(),
		})
		logger.IncrCounter("classify.fallback")
	}
	return f.Secondary.Match(text), nil
}

// normalizeLabels keeps allowed labels only, drops "other", and returns a
// sorted, duplicate-free slice. Unknown labels yield ErrMalformedResponse.
func normalizeLabels(raw []string, allowed []string) ([]string, error) {
	allow := make(map[string]string, len(allowed))
	for _, a := range allowed {
		allow[strings.ToLower(a)] = a
	}

	seen := make(map[string]bool)
	out := []string{}
	for _, r := range raw {
		key := strings.ToLower(strings.Trim(strings.TrimSpace(r), `."'`))
		if key == "" || key == "other" || key == "none" {
			continue
		}
		label, ok := allow[key]
		if !ok {
			return nil, ErrMalformedResponse
		}
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}

	sort.Strings(out)
	return out, nil
}
