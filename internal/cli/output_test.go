package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/campus-events/internal/event"
	"github.com/pfrederiksen/campus-events/internal/pipeline"
)

func TestWriteRecordsGrouped(t *testing.T) {
	records := []*event.Record{
		rec("Protein Folding at Scale", "2025-03-05", "2:00 PM", "MIT"),
		rec("Robotics in the Wild", "2025-03-12", "", "Harvard"),
		rec("Quantum Error Correction", "2025-03-14", "", "MIT"),
	}

	var buf bytes.Buffer
	if err := WriteRecords(&buf, NewListResult(records, true), FormatText, false); err != nil {
		t.Fatalf("WriteRecords failed: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "Harvard (1 events):") || !strings.Contains(out, "MIT (2 events):") {
		t.Errorf("Missing institution headers:\n%s", out)
	}
	if strings.Index(out, "Harvard") > strings.Index(out, "MIT") {
		t.Errorf("Institutions should be sorted:\n%s", out)
	}
	if !strings.Contains(out, "2025-03-05 2:00 PM  Protein Folding at Scale") {
		t.Errorf("Missing record line:\n%s", out)
	}
	if !strings.Contains(out, "Total: 3 events across 2 institutions") {
		t.Errorf("Missing total:\n%s", out)
	}
}

func TestWriteRecordsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecords(&buf, NewListResult(nil, false), FormatText, false); err != nil {
		t.Fatalf("WriteRecords failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No events found." {
		t.Errorf("Unexpected output: %q", buf.String())
	}

	buf.Reset()
	if err := WriteRecords(&buf, NewListResult(nil, false), FormatJSON, false); err != nil {
		t.Fatalf("WriteRecords failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"records": []`) {
		t.Errorf("Expected empty JSON array:\n%s", buf.String())
	}
}

func TestWriteRecordsVerbose(t *testing.T) {
	r := rec("Machine Learning for Genomics", "2025-03-12", "12:00 PM", "MIT")
	r.ID = 7
	r.Location = "Stata Center"
	r.Categories = []string{"biology", "computer science"}
	r.IsVirtual = true

	var buf bytes.Buffer
	if err := WriteRecords(&buf, NewListResult([]*event.Record{r}, false), FormatText, true); err != nil {
		t.Fatalf("WriteRecords failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ID: 7", "Location: Stata Center", "Topics: biology, computer science", "Virtual"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Registration required") {
		t.Errorf("Unexpected registration line:\n%s", out)
	}
}

func TestNewScrapeReport(t *testing.T) {
	fresh := rec("Protein Folding at Scale", "2025-03-05", "", "MIT")
	summary := pipeline.Summary{Results: []pipeline.SourceResult{
		{SourceURL: "https://www.mit.edu/events", Extracted: 3, Inserted: 1, Updated: 2, Duration: 1500 * time.Millisecond, New: []*event.Record{fresh}},
		{SourceURL: "https://www.bu.edu/events", Err: errors.New("status 503")},
	}}

	report := NewScrapeReport(summary)
	if report.Extracted != 3 || report.Inserted != 1 || report.Updated != 2 || report.Failed != 1 {
		t.Errorf("Unexpected totals: %+v", report)
	}
	if len(report.NewRecords) != 1 || report.NewRecords[0] != fresh {
		t.Errorf("Expected the inserted record in NewRecords, got %v", report.NewRecords)
	}
	if report.Sources[0].Duration != "1.5s" || report.Sources[1].Error != "status 503" {
		t.Errorf("Unexpected source reports: %+v", report.Sources)
	}

	var buf bytes.Buffer
	if err := WriteScrapeReport(&buf, report, FormatText, false); err != nil {
		t.Fatalf("WriteScrapeReport failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "FAILED https://www.bu.edu/events: status 503") {
		t.Errorf("Missing failure line:\n%s", out)
	}
	if !strings.Contains(out, "Total: 3 extracted, 1 new, 2 updated, 1 sources failed") {
		t.Errorf("Missing total line:\n%s", out)
	}
}

func TestWriteMaintenanceDryRun(t *testing.T) {
	r := rec("Contact Us", "2025-03-05", "", "MIT")
	r.ID = 4

	var buf bytes.Buffer
	report := &MaintenanceReport{Operation: "sweep", DryRun: true, Removed: []*event.Record{r}, Remaining: 9}
	if err := WriteMaintenance(&buf, report, FormatText); err != nil {
		t.Fatalf("WriteMaintenance failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Would remove #4: 2025-03-05  Contact Us") {
		t.Errorf("Missing removal line:\n%s", out)
	}
	if !strings.Contains(out, "sweep: would remove 1 records, 9 remaining") {
		t.Errorf("Missing summary:\n%s", out)
	}
}
