package dedup

import (
	"testing"
	"time"

	"github.com/pfrederiksen/campus-events/internal/event"
	"github.com/pfrederiksen/campus-events/internal/logger"
	"github.com/pfrederiksen/campus-events/internal/storage"
)

const sourceURL = "https://www.seas.harvard.edu/events"

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return s
}

func TestUpsertInsertsThenUpdatesInPlace(t *testing.T) {
	store := openStore(t)
	d := New(store)

	first := event.NewRecord("Protein Folding at Scale", "2025-03-05", sourceURL)
	first.Time = "2:00 PM"
	res, err := d.Upsert(first)
	if err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}
	if !res.Inserted {
		t.Error("Expected first upsert to insert")
	}

	stored, err := store.Get(res.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	createdAt := stored.CreatedAt

	// Same fingerprint, different case and payload
	second := event.NewRecord("PROTEIN FOLDING AT SCALE!", "2025-03-05", sourceURL)
	second.Time = "3:00 PM"
	second.Location = "Science Center Hall B"
	second.Categories = []string{"biology"}
	time.Sleep(time.Millisecond)

	res2, err := d.Upsert(second)
	if err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}
	if res2.Inserted {
		t.Error("Expected second upsert to update")
	}
	if res2.ID != res.ID {
		t.Errorf("ID changed from %d to %d", res.ID, res2.ID)
	}

	all := store.All()
	if len(all) != 1 {
		t.Fatalf("Expected exactly 1 stored record, got %d", len(all))
	}
	got := all[0]
	if got.Title != "PROTEIN FOLDING AT SCALE!" || got.Time != "3:00 PM" || got.Location != "Science Center Hall B" {
		t.Errorf("Stored record does not carry the latest payload: %+v", got)
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Errorf("CreatedAt changed from %v to %v", createdAt, got.CreatedAt)
	}
	if got.UpdatedAt.Before(createdAt) {
		t.Errorf("UpdatedAt %v before CreatedAt %v", got.UpdatedAt, createdAt)
	}
	if second.ID != res.ID || !second.CreatedAt.Equal(createdAt) {
		t.Errorf("Upsert should report stored identity on the record, got id=%d created=%v", second.ID, second.CreatedAt)
	}

	fields := make(map[string]bool)
	for _, c := range res2.Changes {
		fields[c.Field] = true
	}
	for _, f := range []string{"title", "time", "location", "categories"} {
		if !fields[f] {
			t.Errorf("Expected a %q change, got %v", f, res2.Changes)
		}
	}
	if len(store.Changes()) != 1+len(res2.Changes) {
		t.Errorf("Expected change log to hold the insert and the update changes, got %d", len(store.Changes()))
	}
}

func TestUpsertDifferentDatesAreDistinct(t *testing.T) {
	store := openStore(t)
	d := New(store)

	for _, date := range []string{"2025-03-05", "2025-03-12"} {
		if _, err := d.Upsert(event.NewRecord("Weekly Robotics Seminar Talk", date, sourceURL)); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}
	if store.Len() != 2 {
		t.Errorf("Expected 2 records, got %d", store.Len())
	}
}

// racingStore simulates another writer inserting the same fingerprint
// between FindByFingerprint and Insert
type racingStore struct {
	*storage.Store
	raced bool
}

func (r *racingStore) Insert(rec *event.Record) (int64, error) {
	if !r.raced {
		r.raced = true
		winner := event.NewRecord(rec.Title, rec.Date, rec.SourceURL)
		winner.Time = "9:00 AM"
		if _, err := r.Store.Insert(winner); err != nil {
			return 0, err
		}
	}
	return r.Store.Insert(rec)
}

func TestUpsertRetriesAsUpdateOnConflict(t *testing.T) {
	logger.ResetMetrics()
	store := &racingStore{Store: openStore(t)}
	d := New(store)

	rec := event.NewRecord("Protein Folding at Scale", "2025-03-05", sourceURL)
	rec.Time = "2:00 PM"
	res, err := d.Upsert(rec)
	if err != nil {
		t.Fatalf("Upsert should absorb the uniqueness conflict, got %v", err)
	}
	if res.Inserted {
		t.Error("Expected the retry to update the winner's record")
	}

	all := store.All()
	if len(all) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(all))
	}
	if all[0].Time != "2:00 PM" {
		t.Errorf("Expected our payload to win the update, got %q", all[0].Time)
	}

	snap := logger.GetMetricsSnapshot()
	if snap.Counters["dedup.conflict_retry"] != 1 {
		t.Errorf("dedup.conflict_retry = %d, expected 1", snap.Counters["dedup.conflict_retry"])
	}
	if snap.Counters["dedup.updated"] != 1 {
		t.Errorf("dedup.updated = %d, expected 1", snap.Counters["dedup.updated"])
	}
}

func TestReconcile(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id int64, title string, updated time.Time) *event.Record {
		r := event.NewRecord(title, "2025-03-05", sourceURL)
		r.ID = id
		r.UpdatedAt = updated
		return r
	}

	records := []*event.Record{
		mk(1, "Protein Folding at Scale", base),
		mk(2, "protein folding: at scale", base.Add(time.Hour)),
		mk(3, "PROTEIN FOLDING AT SCALE", base),
		mk(4, "Robotics in the Wild", base),
		mk(5, "Robotics in the wild", base),
		mk(6, "Cellular Aging and Repair", base),
	}

	remove := Reconcile(records)

	var ids []int64
	for _, r := range remove {
		ids = append(ids, r.ID)
	}
	// Group 1 keeps 2 (latest), group 2 keeps 5 (tie, highest ID)
	expected := []int64{1, 3, 4}
	if len(ids) != len(expected) {
		t.Fatalf("Reconcile removed %v, expected %v", ids, expected)
	}
	for i := range expected {
		if ids[i] != expected[i] {
			t.Fatalf("Reconcile removed %v, expected %v", ids, expected)
		}
	}

	// Idempotent over the survivors
	removed := make(map[int64]bool)
	for _, id := range ids {
		removed[id] = true
	}
	var survivors []*event.Record
	for _, r := range records {
		if !removed[r.ID] {
			survivors = append(survivors, r)
		}
	}
	if again := Reconcile(survivors); len(again) != 0 {
		t.Errorf("Second Reconcile removed %d records, expected none", len(again))
	}
}

func TestReconcileEmpty(t *testing.T) {
	if got := Reconcile(nil); len(got) != 0 {
		t.Errorf("Expected nothing to remove, got %d", len(got))
	}
}
