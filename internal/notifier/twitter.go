package notifier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"

	"github.com/pfrederiksen/campus-events/internal/event"
)

const (
	maxPostLength = 280
	minPostBody   = 60
	postInterval  = 2 * time.Second
)

// TwitterNotifier posts events to Twitter
type TwitterNotifier struct {
	client   *twitter.Client
	interval time.Duration
}

// NewTwitterNotifier creates a new Twitter notifier using environment variables
// Required environment variables:
// - TWITTER_API_KEY
// - TWITTER_API_SECRET
// - TWITTER_ACCESS_TOKEN
// - TWITTER_ACCESS_SECRET
func NewTwitterNotifier() (*TwitterNotifier, error) {
	apiKey := os.Getenv("TWITTER_API_KEY")
	apiSecret := os.Getenv("TWITTER_API_SECRET")
	accessToken := os.Getenv("TWITTER_ACCESS_TOKEN")
	accessSecret := os.Getenv("TWITTER_ACCESS_SECRET")

	if apiKey == "" || apiSecret == "" || accessToken == "" || accessSecret == "" {
		return nil, errors.New("missing required Twitter credentials in environment variables")
	}

	config := oauth1.NewConfig(apiKey, apiSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	httpClient := config.Client(oauth1.NoContext, token)

	return &TwitterNotifier{client: twitter.NewClient(httpClient), interval: postInterval}, nil
}

// Notify posts one status per record
func (n *TwitterNotifier) Notify(ctx context.Context, records []*event.Record) error {
	for i, r := range records {
		if _, _, err := n.client.Statuses.Update(formatPost(r), nil); err != nil {
			return fmt.Errorf("posting record %d: %w", r.ID, err)
		}

		// Rate limiting: wait between posts
		if i < len(records)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.interval):
			}
		}
	}
	return nil
}

// formatPost renders a record as a plain-text post of at most 280 runes
func formatPost(r *event.Record) string {
	var b strings.Builder
	b.WriteString("🎓 New campus event\n\n")
	b.WriteString(r.Title + "\n")

	when := r.Date
	if r.Time != "" {
		when += " " + r.Time
	}
	b.WriteString("📅 " + when + "\n")
	if r.Institution != "" && r.Institution != "Unknown" {
		b.WriteString("🏛 " + r.Institution + "\n")
	}
	if r.IsVirtual {
		b.WriteString("💻 Virtual\n")
	}

	post := b.String()
	link := "\n🔗 " + r.URL
	if r.URL == "" {
		link = ""
	}

	// The link is kept whole and the body gives way, unless the link
	// would crowd out the body; then the link is dropped
	room := maxPostLength - len([]rune(link))
	if room < minPostBody {
		link = ""
		room = maxPostLength
	}
	body := []rune(post)
	if len(body) > room {
		body = append(body[:room-3], []rune("...")...)
	}
	return string(body) + link
}
