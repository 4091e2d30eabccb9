package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/campus-events/internal/event"
	"github.com/pfrederiksen/campus-events/internal/storage"
)

const listingHTML = `<html><body>
<div class="event-item"><h3>Protein Folding at Scale</h3><p>Wednesday, March 5, 2025</p><p>2:00 PM - 3:00 PM</p></div>
<div class="event-item"><h3>Robotics in the Wild</h3><p>March 12, 2025</p><p>Location: Maxwell Dworkin G115</p></div>
</body></html>`

// runCmd executes the root command with args and returns stdout
func runCmd(t *testing.T, args ...string) (string, *app, error) {
	t.Helper()
	a := &app{}
	cmd := newRootCmd(a)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), a, err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestExtractStoreAndList(t *testing.T) {
	dataDir := t.TempDir()
	page := writeFile(t, t.TempDir(), "page.html", listingHTML)

	out, _, err := runCmd(t, "extract", "--file", page, "--source-url", "https://www.mit.edu/events",
		"--store", "--data-dir", dataDir, "--format", "json")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	var extracted ListResult
	if err := json.Unmarshal([]byte(out), &extracted); err != nil {
		t.Fatalf("extract output is not JSON: %v\n%s", err, out)
	}
	if extracted.Count != 2 {
		t.Fatalf("Expected 2 extracted records, got %d", extracted.Count)
	}

	out, _, err = runCmd(t, "list", "--data-dir", dataDir, "--format", "json", "--category", "computer science")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var listed ListResult
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("list output is not JSON: %v", err)
	}
	if listed.Count != 1 || listed.Records[0].Title != "Robotics in the Wild" {
		t.Errorf("Unexpected list result: %+v", listed.Records)
	}
	if listed.Records[0].Institution != "MIT" || listed.Records[0].ID == 0 {
		t.Errorf("Stored record missing institution or ID: %+v", listed.Records[0])
	}

	out, _, err = runCmd(t, "list", "--data-dir", dataDir, "--sort", "title")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if strings.Index(out, "Protein Folding") > strings.Index(out, "Robotics") {
		t.Errorf("Expected title order in text output:\n%s", out)
	}

	out, _, err = runCmd(t, "changes", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("changes failed: %v", err)
	}
	if strings.Count(out, " new: ") != 2 {
		t.Errorf("Expected two new-record changes:\n%s", out)
	}
}

func TestExtractWithoutStoreLeavesStoreEmpty(t *testing.T) {
	dataDir := t.TempDir()
	page := writeFile(t, t.TempDir(), "page.html", listingHTML)

	out, _, err := runCmd(t, "extract", "--file", page, "--source-url", "https://www.mit.edu/events", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !strings.Contains(out, "Total: 2 events") {
		t.Errorf("Unexpected output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dataDir, storage.FileName)); !os.IsNotExist(err) {
		t.Error("extract without --store should not write the store")
	}
}

func TestScrapeExitCodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingHTML))
	}))
	defer server.Close()

	dataDir := t.TempDir()

	out, a, err := runCmd(t, "scrape", server.URL, "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	if a.exitCode != ExitNewEvents {
		t.Errorf("Expected exit code %d on first scrape, got %d", ExitNewEvents, a.exitCode)
	}
	if !strings.Contains(out, "NEW: 2025-03-05 2:00 PM  Protein Folding at Scale") {
		t.Errorf("Expected new record in output:\n%s", out)
	}

	_, a, err = runCmd(t, "scrape", server.URL, "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("second scrape failed: %v", err)
	}
	if a.exitCode != ExitSuccess {
		t.Errorf("Expected exit code %d when nothing is new, got %d", ExitSuccess, a.exitCode)
	}

	store, err := storage.Open(dataDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("Expected 2 records after two scrapes, got %d", store.Len())
	}
}

func TestScrapeErrors(t *testing.T) {
	if _, _, err := runCmd(t, "scrape", "--data-dir", t.TempDir()); err == nil {
		t.Error("Expected error without sources")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if _, _, err := runCmd(t, "scrape", server.URL, "--data-dir", t.TempDir()); err == nil {
		t.Error("Expected error when every source fails")
	}
}

func writeStore(t *testing.T, dir string, records []*event.Record) {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{"next_id": len(records) + 1, "records": records})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	writeFile(t, dir, storage.FileName, string(data))
}

func TestReconcileCommand(t *testing.T) {
	dataDir := t.TempDir()
	src := "https://www.mit.edu/events"

	older := event.NewRecord("Protein Folding at Scale", "2025-03-05", src)
	older.ID = 1
	older.UpdatedAt = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	newer := event.NewRecord("protein folding: at scale", "2025-03-05", src)
	newer.ID = 2
	newer.UpdatedAt = older.UpdatedAt.AddDate(0, 0, 1)
	other := event.NewRecord("Robotics in the Wild", "2025-03-12", src)
	other.ID = 3
	writeStore(t, dataDir, []*event.Record{older, newer, other})

	out, _, err := runCmd(t, "reconcile", "--dry-run", "--data-dir", dataDir, "--format", "json")
	if err != nil {
		t.Fatalf("reconcile --dry-run failed: %v", err)
	}
	var report MaintenanceReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if !report.DryRun || len(report.Removed) != 1 || report.Removed[0].ID != 1 || report.Remaining != 3 {
		t.Errorf("Unexpected dry-run report: %+v", report)
	}

	out, _, err = runCmd(t, "reconcile", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !strings.Contains(out, "reconcile: removed 1 records, 2 remaining") {
		t.Errorf("Unexpected output:\n%s", out)
	}

	// Running again changes nothing
	out, _, err = runCmd(t, "reconcile", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}
	if !strings.Contains(out, "removed 0 records, 2 remaining") {
		t.Errorf("Expected idempotent reconcile:\n%s", out)
	}
}

func TestSweepCommand(t *testing.T) {
	dataDir := t.TempDir()
	src := "https://www.seas.harvard.edu/events"

	var records []*event.Record
	for i, title := range []string{"Contact Us", "Protein Folding at Scale", "March 5, 2025 at 2:00 PM"} {
		r := event.NewRecord(title, "2025-03-05", src)
		r.ID = int64(i + 1)
		records = append(records, r)
	}
	writeStore(t, dataDir, records)

	out, _, err := runCmd(t, "sweep", "--data-dir", dataDir, "--format", "json")
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	var report MaintenanceReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(report.Removed) != 2 || report.Remaining != 1 {
		t.Errorf("Unexpected sweep report: %+v", report)
	}

	store, err := storage.Open(dataDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	all := store.All()
	if len(all) != 1 || all[0].Title != "Protein Folding at Scale" {
		t.Errorf("Unexpected survivors: %+v", all)
	}
}

func TestICSCommand(t *testing.T) {
	dataDir := t.TempDir()
	r := event.NewRecord("Protein Folding at Scale", "2025-03-05", "https://www.mit.edu/events")
	r.ID = 1
	r.Time = "2:00 PM"
	writeStore(t, dataDir, []*event.Record{r})

	outFile := filepath.Join(t.TempDir(), "events.ics")
	if _, _, err := runCmd(t, "ics", "--data-dir", dataDir, "--out", outFile, "--name", "Test"); err != nil {
		t.Fatalf("ics failed: %v", err)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("ics file not written: %v", err)
	}
	ics := string(data)
	if !strings.Contains(ics, "X-WR-CALNAME:Test") || strings.Count(ics, "BEGIN:VEVENT") != 1 {
		t.Errorf("Unexpected calendar:\n%s", ics)
	}
}

func TestInvalidFlags(t *testing.T) {
	dataDir := t.TempDir()

	if _, _, err := runCmd(t, "list", "--data-dir", dataDir, "--format", "xml"); err == nil {
		t.Error("Expected error for invalid format")
	}
	if _, _, err := runCmd(t, "list", "--data-dir", dataDir, "--sort", "speaker"); err == nil {
		t.Error("Expected error for invalid sort")
	}
	if _, _, err := runCmd(t, "extract", "--data-dir", dataDir); err == nil {
		t.Error("Expected error for missing required flags")
	}
}

func TestScrapeNotify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingHTML))
	}))
	defer server.Close()

	if _, _, err := runCmd(t, "scrape", server.URL, "--notify", "--data-dir", t.TempDir()); err == nil {
		t.Error("Expected error when no notification backend is enabled")
	}

	a := &app{}
	cmd := newRootCmd(a)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"scrape", server.URL, "--notify-dry-run", "--data-dir", t.TempDir()})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	if !strings.Contains(errOut.String(), "--- Post 1/2 ---") || !strings.Contains(errOut.String(), "Robotics in the Wild") {
		t.Errorf("Expected dry-run posts on stderr:\n%s", errOut.String())
	}
}
