package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/campus-events/internal/calendar"
	"github.com/pfrederiksen/campus-events/internal/dedup"
	"github.com/pfrederiksen/campus-events/internal/event"
	"github.com/pfrederiksen/campus-events/internal/extract"
	"github.com/pfrederiksen/campus-events/internal/filter"
	"github.com/pfrederiksen/campus-events/internal/logger"
	"github.com/pfrederiksen/campus-events/internal/notifier"
	"github.com/pfrederiksen/campus-events/internal/pipeline"
)

func newScrapeCmd(a *app) *cobra.Command {
	var notify, notifyDryRun bool

	cmd := &cobra.Command{
		Use:   "scrape [url...]",
		Short: "Fetch listing pages and store their events",
		Long: `Fetch each listing page, extract its events and upsert them into the store.
URLs given as arguments replace the sources from the config file.
With --notify, newly stored events are announced through the backends
enabled in the config file.
Exits with code 2 when new events were stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.setup(cmd)
			if err != nil {
				return err
			}

			var n notifier.Notifier
			if notify || notifyDryRun {
				if n, err = e.notifier(notifyDryRun); err != nil {
					return err
				}
			}

			sources := args
			if len(sources) == 0 {
				sources = e.cfg.Sources
			}
			if len(sources) == 0 {
				return errors.New("no sources: pass URLs or set sources in the config file")
			}

			store, err := e.openStore()
			if err != nil {
				return err
			}

			p := pipeline.New(pipeline.Options{
				Fetcher:     e.fetcher(),
				Engine:      extract.New(e.tables),
				Categorizer: e.categorizer(),
				Dedup:       dedup.New(store),
				Concurrency: e.cfg.Concurrency,
			})

			summary, runErr := p.RunAll(cmd.Context(), sources)

			// Keep whatever the successful sources produced
			if err := store.Save(); err != nil {
				return fmt.Errorf("saving store: %w", err)
			}
			logger.SetGauge("store.records", float64(store.Len()))

			report := NewScrapeReport(summary)
			if a.verbose {
				snap := logger.GetMetricsSnapshot()
				report.Metrics = &snap
			}
			if err := WriteScrapeReport(e.out, report, e.format, a.verbose); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			if n != nil && len(report.NewRecords) > 0 {
				if err := n.Notify(cmd.Context(), report.NewRecords); err != nil {
					return fmt.Errorf("notifying: %w", err)
				}
			}

			if runErr != nil {
				return runErr
			}
			if report.Inserted > 0 {
				a.exitCode = ExitNewEvents
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&notify, "notify", false, "Announce new events through the configured backends")
	cmd.Flags().BoolVar(&notifyDryRun, "notify-dry-run", false, "Print the announcements instead of sending them")
	return cmd
}

func newExtractCmd(a *app) *cobra.Command {
	var (
		file      string
		sourceURL string
		persist   bool
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract events from a saved HTML page",
		Long: `Run extraction over a local HTML file as if it had been fetched from
--source-url. Records are printed; with --store they are also upserted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.setup(cmd)
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("opening %s: %w", file, err)
			}
			defer f.Close()

			doc, err := goquery.NewDocumentFromReader(f)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", file, err)
			}

			opts := pipeline.Options{
				Engine:      extract.New(e.tables),
				Categorizer: e.categorizer(),
			}
			var save func() error
			if persist {
				store, err := e.openStore()
				if err != nil {
					return err
				}
				opts.Dedup = dedup.New(store)
				save = store.Save
			}

			res := pipeline.New(opts).Process(cmd.Context(), doc, sourceURL)
			if res.Err != nil {
				return res.Err
			}
			if save != nil {
				if err := save(); err != nil {
					return fmt.Errorf("saving store: %w", err)
				}
			}

			return WriteRecords(e.out, NewListResult(res.Records, false), e.format, a.verbose)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "HTML file to extract from (required)")
	cmd.Flags().StringVar(&sourceURL, "source-url", "", "Listing page URL the file came from (required)")
	cmd.Flags().BoolVar(&persist, "store", false, "Upsert extracted records into the store")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("source-url")

	return cmd
}

// listFilter selects stored records for list and ics
type listFilter struct {
	institution string
	category    string
	upcoming    bool
	days        int
}

func (f listFilter) apply(records []*event.Record, now time.Time) []*event.Record {
	out := make([]*event.Record, 0, len(records))
	for _, r := range records {
		if f.institution != "" && !strings.EqualFold(r.Institution, f.institution) {
			continue
		}
		if f.category != "" && !hasCategory(r, f.category) {
			continue
		}
		if f.upcoming && !r.IsUpcoming(now) {
			continue
		}
		if !r.IsWithinDays(now, f.days) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func hasCategory(r *event.Record, category string) bool {
	for _, c := range r.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

func (f *listFilter) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.institution, "institution", "", "Only events from this institution")
	cmd.Flags().StringVar(&f.category, "category", "", "Only events with this topic")
	cmd.Flags().BoolVar(&f.upcoming, "upcoming", false, "Only events today or later")
	cmd.Flags().IntVar(&f.days, "days", 0, "Only events within this many days from today (0 = no limit)")
}

func newListCmd(a *app) *cobra.Command {
	var (
		filters listFilter
		sortBy  string
		group   bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored events",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.setup(cmd)
			if err != nil {
				return err
			}

			order := SortOrder(strings.ToLower(sortBy))
			if order != SortByDate && order != SortByInstitution && order != SortByTitle {
				return fmt.Errorf("invalid sort: %s (must be 'date', 'institution' or 'title')", sortBy)
			}

			store, err := e.openStore()
			if err != nil {
				return err
			}

			records := filters.apply(store.All(), time.Now())
			sortRecords(records, order)
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}

			return WriteRecords(e.out, NewListResult(records, group), e.format, a.verbose)
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVar(&sortBy, "sort", "date", "Sort order: date, institution or title")
	cmd.Flags().BoolVar(&group, "group", false, "Group text output by institution")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of events to show (0 = all)")

	return cmd
}

func newReconcileCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Remove duplicate records, keeping the most recently updated",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.setup(cmd)
			if err != nil {
				return err
			}
			store, err := e.openStore()
			if err != nil {
				return err
			}

			remove := dedup.Reconcile(store.All())
			return removeRecords(e, store, "reconcile", remove, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be removed without changing the store")
	return cmd
}

func newSweepCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove stored records whose titles no longer pass the non-event filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.setup(cmd)
			if err != nil {
				return err
			}
			store, err := e.openStore()
			if err != nil {
				return err
			}

			remove := filter.New(e.tables).Sweep(store.All())
			return removeRecords(e, store, "sweep", remove, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be removed without changing the store")
	return cmd
}

// recordStore is the part of the store maintenance commands need
type recordStore interface {
	Delete(ids ...int64) int
	Len() int
	Save() error
}

func removeRecords(e *env, store recordStore, operation string, remove []*event.Record, dryRun bool) error {
	if remove == nil {
		remove = []*event.Record{}
	}

	if !dryRun && len(remove) > 0 {
		ids := make([]int64, len(remove))
		for i, r := range remove {
			ids[i] = r.ID
		}
		n := store.Delete(ids...)
		if err := store.Save(); err != nil {
			return fmt.Errorf("saving store: %w", err)
		}
		logger.AddCounter(operation+".removed", int64(n))
		logger.Info("Records removed", logger.Fields{"operation": operation, "removed": n})
	}

	report := &MaintenanceReport{
		Operation: operation,
		DryRun:    dryRun,
		Removed:   remove,
		Remaining: store.Len(),
	}
	return WriteMaintenance(e.out, report, e.format)
}

func newICSCmd(a *app) *cobra.Command {
	var (
		filters listFilter
		out     string
		name    string
	)

	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Export stored events as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.setup(cmd)
			if err != nil {
				return err
			}
			store, err := e.openStore()
			if err != nil {
				return err
			}

			records := filters.apply(store.All(), time.Now())
			sortRecords(records, SortByDate)
			ics := calendar.GenerateBulkICS(records, name)

			if out == "" || out == "-" {
				_, err := fmt.Fprint(e.out, ics)
				return err
			}
			if err := os.WriteFile(out, []byte(ics), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			logger.Info("Calendar written", logger.Fields{"path": out, "events": len(records)})
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVar(&out, "out", "-", "Output file, or - for stdout")
	cmd.Flags().StringVar(&name, "name", "Campus Events", "Calendar name")

	return cmd
}

func newChangesCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "changes",
		Short: "Show recent field-level changes to stored events",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.setup(cmd)
			if err != nil {
				return err
			}
			store, err := e.openStore()
			if err != nil {
				return err
			}

			changes := store.Changes()
			if limit > 0 && len(changes) > limit {
				changes = changes[len(changes)-limit:]
			}

			if e.format == FormatJSON {
				if changes == nil {
					changes = []*event.Change{}
				}
				return writeJSON(e.out, changes)
			}

			if len(changes) == 0 {
				fmt.Fprintln(e.out, "No changes recorded.")
				return nil
			}
			for _, c := range changes {
				stamp := c.DetectedAt.Format("2006-01-02 15:04")
				if c.Field == "new" {
					fmt.Fprintf(e.out, "%s #%d new: %s\n", stamp, c.RecordID, c.NewValue)
					continue
				}
				fmt.Fprintf(e.out, "%s #%d %s: %q -> %q\n", stamp, c.RecordID, c.Field, c.OldValue, c.NewValue)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of most recent changes to show (0 = all)")
	return cmd
}
