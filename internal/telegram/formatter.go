package telegram

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/pfrederiksen/campus-events/internal/event"
)

// FormatRecord formats a single record as an HTML message
func FormatRecord(r *event.Record) string {
	var msg strings.Builder

	msg.WriteString("🎓 <b>New campus event</b>\n\n")
	msg.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(r.Title)))
	if r.Institution != "" {
		msg.WriteString(fmt.Sprintf("🏛 %s\n", html.EscapeString(r.Institution)))
	}
	msg.WriteString(fmt.Sprintf("📅 %s\n", formatWhen(r)))
	if r.Location != "" {
		msg.WriteString(fmt.Sprintf("📍 %s\n", html.EscapeString(r.Location)))
	}
	if r.IsVirtual {
		msg.WriteString("💻 Virtual\n")
	}
	if r.RequiresRegistration {
		msg.WriteString("📝 Registration required\n")
	}
	if len(r.Categories) > 0 {
		msg.WriteString(fmt.Sprintf("🏷 %s\n", html.EscapeString(strings.Join(r.Categories, ", "))))
	}
	if r.URL != "" {
		msg.WriteString(fmt.Sprintf("\n🔗 <a href=\"%s\">Event page</a>", html.EscapeString(r.URL)))
	}

	return msg.String()
}

// FormatDigest formats many records as one message grouped by institution
func FormatDigest(records []*event.Record) string {
	if len(records) == 0 {
		return "No new events."
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("📬 <b>%d new campus event%s</b>\n\n", len(records), pluralize(len(records))))

	byInstitution := make(map[string][]*event.Record)
	for _, r := range records {
		byInstitution[r.Institution] = append(byInstitution[r.Institution], r)
	}
	institutions := make([]string, 0, len(byInstitution))
	for inst := range byInstitution {
		institutions = append(institutions, inst)
	}
	sort.Strings(institutions)

	for _, inst := range institutions {
		group := byInstitution[inst]
		msg.WriteString(fmt.Sprintf("🏛 <b>%s</b> (%d)\n", html.EscapeString(inst), len(group)))
		for _, r := range group {
			title := html.EscapeString(r.Title)
			if r.URL != "" {
				title = fmt.Sprintf("<a href=\"%s\">%s</a>", html.EscapeString(r.URL), title)
			}
			msg.WriteString(fmt.Sprintf("  • %s, %s\n", title, formatWhen(r)))
		}
		msg.WriteString("\n")
	}

	return strings.TrimRight(msg.String(), "\n")
}

// SplitMessage breaks text into chunks of at most limit runes, cutting
// at line boundaries where possible
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curLen+n > limit {
			flush()
		}
		// A single line longer than the limit is cut by runes
		for n > limit {
			runes := []rune(line)
			chunks = append(chunks, string(runes[:limit]))
			line = string(runes[limit:])
			n -= limit
		}
		cur.WriteString(line)
		curLen += n
	}
	flush()

	return chunks
}

func formatWhen(r *event.Record) string {
	when := r.Date
	if t := event.ParseDate(r.Date); !t.IsZero() {
		when = t.Format("Mon, Jan 2, 2006")
	}
	if r.Time != "" {
		when += " at " + r.Time
	}
	return when
}

func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
