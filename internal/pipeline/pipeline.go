package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/campus-events/internal/classify"
	"github.com/pfrederiksen/campus-events/internal/dedup"
	"github.com/pfrederiksen/campus-events/internal/event"
	"github.com/pfrederiksen/campus-events/internal/extract"
	"github.com/pfrederiksen/campus-events/internal/logger"
)

// ErrAllSourcesFailed is returned by RunAll when no source succeeded
var ErrAllSourcesFailed = errors.New("all sources failed")

// Fetcher supplies parsed listing pages
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// Options configures a Pipeline
type Options struct {
	Fetcher     Fetcher
	Engine      *extract.Engine
	Categorizer classify.Categorizer // nil keeps the keyword categories from extraction
	Dedup       *dedup.Deduplicator  // nil runs without persisting
	Concurrency int
}

// Pipeline wires the fetcher, extraction engine, categorizer and
// deduplicator together
type Pipeline struct {
	fetcher     Fetcher
	engine      *extract.Engine
	categorizer classify.Categorizer
	dedup       *dedup.Deduplicator
	concurrency int
}

// SourceResult summarizes one source's run
type SourceResult struct {
	SourceURL string          `json:"source_url"`
	Extracted int             `json:"extracted"`
	Inserted  int             `json:"inserted"`
	Updated   int             `json:"updated"`
	Changed   int             `json:"changed"`
	Duration  time.Duration   `json:"duration"`
	Records   []*event.Record `json:"-"`
	New       []*event.Record `json:"-"` // inserted by this run
	Err       error           `json:"-"`
}

// Summary collects the results of a multi-source run in source order
type Summary struct {
	Results []SourceResult
}

// Failed returns the number of sources that failed
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Totals returns the extracted, inserted and updated counts over all sources
func (s Summary) Totals() (extracted, inserted, updated int) {
	for _, r := range s.Results {
		extracted += r.Extracted
		inserted += r.Inserted
		updated += r.Updated
	}
	return extracted, inserted, updated
}

// New creates a Pipeline
func New(opts Options) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Pipeline{
		fetcher:     opts.Fetcher,
		engine:      opts.Engine,
		categorizer: opts.Categorizer,
		dedup:       opts.Dedup,
		concurrency: opts.Concurrency,
	}
}

// Run fetches one source and processes it
func (p *Pipeline) Run(ctx context.Context, sourceURL string) SourceResult {
	start := time.Now()
	res := SourceResult{SourceURL: sourceURL}

	doc, err := p.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		res.Err = fmt.Errorf("fetching %s: %w", sourceURL, err)
	} else {
		res = p.Process(ctx, doc, sourceURL)
	}

	res.Duration = time.Since(start)
	logger.RecordTiming("source.duration", res.Duration)
	if res.Err != nil {
		logger.IncrCounter("source.failed")
		logger.Error("Source failed", logger.Fields{"source_url": sourceURL}, res.Err)
	} else {
		logger.IncrCounter("source.succeeded")
		logger.Info("Source processed", logger.Fields{
			"source_url": sourceURL,
			"extracted":  res.Extracted,
			"inserted":   res.Inserted,
			"updated":    res.Updated,
			"duration":   res.Duration.String(),
		})
	}
	return res
}

// Process extracts, categorizes and upserts the records of an already
// parsed page
func (p *Pipeline) Process(ctx context.Context, doc *goquery.Document, sourceURL string) SourceResult {
	res := SourceResult{SourceURL: sourceURL}

	records, err := p.engine.Extract(doc, sourceURL)
	if err != nil {
		res.Err = fmt.Errorf("extracting %s: %w", sourceURL, err)
		return res
	}
	res.Extracted = len(records)

	// Extraction is done; the possibly blocking categorizer runs per record
	if p.categorizer != nil {
		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				res.Err = err
				return res
			}
			labels, err := p.categorizer.Categorize(ctx, rec.Title+"\n"+rec.Description)
			if err != nil {
				logger.Debug("Categorizer failed, keeping keyword categories", logger.Fields{
					"title": rec.Title,
					"error": err.Error(),
				})
				continue
			}
			rec.Categories = labels
		}
	}

	res.Records = records
	if p.dedup == nil {
		return res
	}

	for _, rec := range records {
		up, err := p.dedup.Upsert(rec)
		if err != nil {
			res.Err = fmt.Errorf("storing %s: %w", sourceURL, err)
			return res
		}
		if up.Inserted {
			res.Inserted++
			res.New = append(res.New, rec)
		} else {
			res.Updated++
			if len(up.Changes) > 0 {
				res.Changed++
			}
		}
	}

	return res
}

// RunAll processes sources concurrently, at most Concurrency at a time.
// Individual failures are reported in the summary; the error is non-nil
// only when every source failed or ctx was canceled.
func (p *Pipeline) RunAll(ctx context.Context, sources []string) (Summary, error) {
	summary := Summary{Results: make([]SourceResult, len(sources))}
	if len(sources) == 0 {
		return summary, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				summary.Results[i] = SourceResult{SourceURL: src, Err: err}
				return err
			}
			summary.Results[i] = p.Run(gctx, src)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	logger.SetGauge("sources.total", float64(len(sources)))
	logger.SetGauge("sources.failed", float64(summary.Failed()))

	if summary.Failed() == len(sources) {
		return summary, fmt.Errorf("%w (%d)", ErrAllSourcesFailed, len(sources))
	}
	return summary, nil
}
