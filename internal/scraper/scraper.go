package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"

	"github.com/pfrederiksen/campus-events/internal/logger"
)

const (
	UserAgent      = "campus-events/1.0 (github.com/pfrederiksen/campus-events)"
	Timeout        = 30 * time.Second
	MaxRetries     = 3
	InitialBackoff = 500 * time.Millisecond
	MaxBackoff     = 10 * time.Second
)

// StatusError reports a non-200 response
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

// Temporary reports whether retrying may help
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Options configures a Scraper. Zero values take the package defaults.
type Options struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	UserAgent      string
}

// Scraper fetches listing pages and parses them into documents
type Scraper struct {
	client         *http.Client
	userAgent      string
	maxRetries     int
	initialBackoff time.Duration
}

// New creates a Scraper with the default options
func New() *Scraper {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a Scraper with the given options
func NewWithOptions(opts Options) *Scraper {
	if opts.Timeout <= 0 {
		opts.Timeout = Timeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = InitialBackoff
	}
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Scraper{
		client:         &http.Client{Timeout: opts.Timeout, Transport: transport},
		userAgent:      opts.UserAgent,
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
	}
}

// Fetch downloads url and parses it as HTML. Network errors, 429 and 5xx
// responses are retried with exponential backoff; other statuses fail
// immediately.
func (s *Scraper) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	var doc *goquery.Document

	operation := func() error {
		d, err := s.fetchOnce(ctx, url)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && !statusErr.Temporary() {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		doc = d
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.initialBackoff
	policy.MaxInterval = MaxBackoff
	policy.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		logger.IncrCounter("fetch.retry")
		logger.Warn("Fetch failed, retrying", logger.Fields{
			"url":   url,
			"wait":  wait.String(),
			"error": err.Error(),
		})
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.maxRetries)), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Scraper) fetchOnce(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}
