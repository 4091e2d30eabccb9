package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/campus-events/internal/event"
	"github.com/pfrederiksen/campus-events/internal/logger"
	"github.com/pfrederiksen/campus-events/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ListResult contains records to be output
type ListResult struct {
	GeneratedAt   time.Time                  `json:"generated_at"`
	Records       []*event.Record            `json:"records"`
	Count         int                        `json:"count"`
	ByInstitution map[string][]*event.Record `json:"by_institution,omitempty"`
}

// NewListResult groups records by institution, preserving their order
func NewListResult(records []*event.Record, group bool) *ListResult {
	result := &ListResult{
		GeneratedAt: time.Now().UTC(),
		Records:     records,
		Count:       len(records),
	}
	if result.Records == nil {
		result.Records = []*event.Record{}
	}
	if group && len(records) > 0 {
		result.ByInstitution = make(map[string][]*event.Record)
		for _, r := range records {
			result.ByInstitution[r.Institution] = append(result.ByInstitution[r.Institution], r)
		}
	}
	return result
}

// SourceReport summarizes one source of a scrape run
type SourceReport struct {
	SourceURL string `json:"source_url"`
	Extracted int    `json:"extracted"`
	Inserted  int    `json:"inserted"`
	Updated   int    `json:"updated"`
	Changed   int    `json:"changed"`
	Duration  string `json:"duration"`
	Error     string `json:"error,omitempty"`
}

// ScrapeReport is the output of a scrape or extract run
type ScrapeReport struct {
	RunAt      time.Time        `json:"run_at"`
	Sources    []SourceReport   `json:"sources"`
	Extracted  int              `json:"extracted"`
	Inserted   int              `json:"inserted"`
	Updated    int              `json:"updated"`
	Failed     int              `json:"failed"`
	NewRecords []*event.Record  `json:"new_records"`
	Metrics    *logger.Snapshot `json:"metrics,omitempty"`
}

// NewScrapeReport builds a report from a pipeline summary
func NewScrapeReport(summary pipeline.Summary) *ScrapeReport {
	report := &ScrapeReport{
		RunAt:      time.Now().UTC(),
		Sources:    make([]SourceReport, 0, len(summary.Results)),
		NewRecords: []*event.Record{},
	}

	for _, res := range summary.Results {
		sr := SourceReport{
			SourceURL: res.SourceURL,
			Extracted: res.Extracted,
			Inserted:  res.Inserted,
			Updated:   res.Updated,
			Changed:   res.Changed,
			Duration:  res.Duration.Round(time.Millisecond).String(),
		}
		if res.Err != nil {
			sr.Error = res.Err.Error()
			report.Failed++
		}
		report.Sources = append(report.Sources, sr)

		report.NewRecords = append(report.NewRecords, res.New...)
	}
	report.Extracted, report.Inserted, report.Updated = summary.Totals()
	return report
}

// MaintenanceReport is the output of reconcile and sweep
type MaintenanceReport struct {
	Operation string          `json:"operation"`
	DryRun    bool            `json:"dry_run"`
	Removed   []*event.Record `json:"removed"`
	Remaining int             `json:"remaining"`
}

// WriteRecords writes the result in the specified format
func WriteRecords(w io.Writer, result *ListResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeRecordsText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteScrapeReport writes a scrape report in the specified format
func WriteScrapeReport(w io.Writer, report *ScrapeReport, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatText:
		return writeScrapeText(w, report, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteMaintenance writes a maintenance report in the specified format
func WriteMaintenance(w io.Writer, report *MaintenanceReport, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatText:
		verb := "Removed"
		if report.DryRun {
			verb = "Would remove"
		}
		for _, r := range report.Removed {
			fmt.Fprintf(w, "%s #%d: %s\n", verb, r.ID, formatRecordLine(r))
		}
		fmt.Fprintf(w, "\n%s: %s %d records, %d remaining\n", report.Operation, strings.ToLower(verb), len(report.Removed), report.Remaining)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeRecordsText(w io.Writer, result *ListResult, verbose bool) error {
	if result.Count == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	if len(result.ByInstitution) > 0 {
		institutions := make([]string, 0, len(result.ByInstitution))
		for inst := range result.ByInstitution {
			institutions = append(institutions, inst)
		}
		sort.Strings(institutions)

		for _, inst := range institutions {
			records := result.ByInstitution[inst]
			fmt.Fprintf(w, "\n%s (%d events):\n", inst, len(records))
			for _, r := range records {
				fmt.Fprintf(w, "  %s\n", formatRecordLine(r))
				if verbose {
					writeRecordDetails(w, r, "       ")
				}
			}
		}
		fmt.Fprintf(w, "\nTotal: %d events across %d institutions\n", result.Count, len(result.ByInstitution))
		return nil
	}

	for _, r := range result.Records {
		fmt.Fprintf(w, "%s (%s)\n", formatRecordLine(r), r.Institution)
		if verbose {
			writeRecordDetails(w, r, "     ")
		}
	}
	fmt.Fprintf(w, "\nTotal: %d events\n", result.Count)
	return nil
}

func writeScrapeText(w io.Writer, report *ScrapeReport, verbose bool) error {
	for _, s := range report.Sources {
		if s.Error != "" {
			fmt.Fprintf(w, "FAILED %s: %s\n", s.SourceURL, s.Error)
			continue
		}
		fmt.Fprintf(w, "%s: %d extracted, %d new, %d updated (%s)\n",
			s.SourceURL, s.Extracted, s.Inserted, s.Updated, s.Duration)
	}

	if len(report.NewRecords) > 0 {
		fmt.Fprintln(w)
		for _, r := range report.NewRecords {
			fmt.Fprintf(w, "NEW: %s\n", formatRecordLine(r))
			if verbose {
				writeRecordDetails(w, r, "     ")
			}
		}
	}

	fmt.Fprintf(w, "\nTotal: %d extracted, %d new, %d updated, %d sources failed\n",
		report.Extracted, report.Inserted, report.Updated, report.Failed)

	if verbose && report.Metrics != nil {
		writeMetricsText(w, *report.Metrics)
	}
	return nil
}

func formatRecordLine(r *event.Record) string {
	when := r.Date
	if r.Time != "" {
		when += " " + r.Time
	}
	return fmt.Sprintf("%s  %s", when, r.Title)
}

func writeRecordDetails(w io.Writer, r *event.Record, indent string) {
	fmt.Fprintf(w, "%sID: %d\n", indent, r.ID)
	if r.Location != "" {
		fmt.Fprintf(w, "%sLocation: %s\n", indent, r.Location)
	}
	if len(r.Categories) > 0 {
		fmt.Fprintf(w, "%sTopics: %s\n", indent, strings.Join(r.Categories, ", "))
	}
	if r.IsVirtual {
		fmt.Fprintf(w, "%sVirtual\n", indent)
	}
	if r.RequiresRegistration {
		fmt.Fprintf(w, "%sRegistration required\n", indent)
	}
	fmt.Fprintf(w, "%sURL: %s\n", indent, r.URL)
}

func writeMetricsText(w io.Writer, snap logger.Snapshot) {
	fmt.Fprintln(w, "\nMetrics:")
	for _, name := range snap.CounterNames() {
		fmt.Fprintf(w, "  %-32s %d\n", name, snap.Counters[name])
	}
	timings := make([]string, 0, len(snap.Timings))
	for name := range snap.Timings {
		timings = append(timings, name)
	}
	sort.Strings(timings)
	for _, name := range timings {
		t := snap.Timings[name]
		fmt.Fprintf(w, "  %-32s n=%d avg=%s max=%s\n", name, t.Count,
			t.Average.Round(time.Millisecond), t.Max.Round(time.Millisecond))
	}
}
