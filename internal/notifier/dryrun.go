package notifier

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/pfrederiksen/campus-events/internal/event"
)

// DryRunNotifier prints what would be posted without sending anything
type DryRunNotifier struct {
	w io.Writer
}

// NewDryRunNotifier creates a new dry-run notifier writing to w
func NewDryRunNotifier(w io.Writer) *DryRunNotifier {
	return &DryRunNotifier{w: w}
}

// Notify prints the posts that would be sent
func (n *DryRunNotifier) Notify(ctx context.Context, records []*event.Record) error {
	for i, r := range records {
		post := formatPost(r)
		fmt.Fprintf(n.w, "--- Post %d/%d ---\n", i+1, len(records))
		fmt.Fprintln(n.w, post)
		fmt.Fprintf(n.w, "\n(Length: %d characters)\n\n", utf8.RuneCountInString(post))
	}
	return nil
}
