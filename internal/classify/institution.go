package classify

import (
	"net/url"
	"strings"

	"github.com/pfrederiksen/campus-events/internal/patterns"
)

const (
	// InstitutionOthers labels a source URL with no table match
	InstitutionOthers = "Others"
	// InstitutionUnknown labels a record without a source URL
	InstitutionUnknown = "Unknown"
)

// Institution maps a source URL to an institution label. The host is
// matched when the URL parses with one; otherwise the whole string is.
// First table entry with a matching substring wins.
func Institution(tables *patterns.Tables, sourceURL string) string {
	raw := strings.ToLower(strings.TrimSpace(sourceURL))
	if raw == "" {
		return InstitutionUnknown
	}

	target := raw
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		target = u.Host
	}

	for _, inst := range tables.Institutions() {
		for _, m := range inst.Match {
			if strings.Contains(target, m) {
				return inst.Label
			}
		}
	}

	return InstitutionOthers
}
