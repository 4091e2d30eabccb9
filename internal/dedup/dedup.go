package dedup

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pfrederiksen/campus-events/internal/event"
	"github.com/pfrederiksen/campus-events/internal/logger"
	"github.com/pfrederiksen/campus-events/internal/storage"
)

// maxAttempts bounds insert/update retries when another writer wins the
// race for the same fingerprint
const maxAttempts = 3

// Store is the persistence boundary. Insert must reject a colliding
// fingerprint with storage.ErrDuplicateFingerprint.
type Store interface {
	FindByFingerprint(fp event.Fingerprint) (*event.Record, bool)
	Insert(rec *event.Record) (int64, error)
	Update(rec *event.Record) error
}

// ChangeRecorder receives field-level changes detected during Upsert
type ChangeRecorder interface {
	AppendChanges(changes []*event.Change)
}

// Result describes what Upsert did
type Result struct {
	ID       int64
	Inserted bool
	Changes  []*event.Change
}

// Deduplicator writes records through a Store without ever creating a
// second record for a fingerprint
type Deduplicator struct {
	store    Store
	recorder ChangeRecorder
}

// New creates a Deduplicator. If store also implements ChangeRecorder,
// detected changes are appended to it.
func New(store Store) *Deduplicator {
	d := &Deduplicator{store: store}
	if r, ok := store.(ChangeRecorder); ok {
		d.recorder = r
	}
	return d
}

// Upsert inserts rec or updates the stored record with the same
// fingerprint. An update replaces the extracted fields and keeps the
// stored ID and CreatedAt.
func (d *Deduplicator) Upsert(rec *event.Record) (Result, error) {
	rec.NormalizedTitle = event.NormalizeTitle(rec.Title)
	fp := rec.Fingerprint()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		existing, found := d.store.FindByFingerprint(fp)
		if !found {
			id, err := d.store.Insert(rec)
			if errors.Is(err, storage.ErrDuplicateFingerprint) {
				// Another writer inserted it between our find and insert
				logger.IncrCounter("dedup.conflict_retry")
				continue
			}
			if err != nil {
				return Result{}, fmt.Errorf("inserting record: %w", err)
			}

			logger.IncrCounter("dedup.inserted")
			changes := event.DetectChanges(nil, rec)
			d.record(changes)
			return Result{ID: id, Inserted: true, Changes: changes}, nil
		}

		updated := merge(existing, rec)
		changes := event.DetectChanges(existing, updated)
		if err := d.store.Update(updated); err != nil {
			if errors.Is(err, storage.ErrDuplicateFingerprint) || errors.Is(err, storage.ErrNotFound) {
				logger.IncrCounter("dedup.conflict_retry")
				continue
			}
			return Result{}, fmt.Errorf("updating record %d: %w", existing.ID, err)
		}

		rec.ID = updated.ID
		rec.CreatedAt = updated.CreatedAt
		rec.UpdatedAt = updated.UpdatedAt

		logger.IncrCounter("dedup.updated")
		if len(changes) > 0 {
			logger.Info("Record changed", logger.Fields{
				"id":      updated.ID,
				"title":   updated.Title,
				"changes": len(changes),
			})
			d.record(changes)
		}
		return Result{ID: updated.ID, Changes: changes}, nil
	}

	return Result{}, fmt.Errorf("upserting %q on %s: gave up after %d attempts", rec.Title, rec.Date, maxAttempts)
}

func (d *Deduplicator) record(changes []*event.Change) {
	if d.recorder != nil && len(changes) > 0 {
		d.recorder.AppendChanges(changes)
	}
}

// merge returns the stored record with the fresh extraction's fields
func merge(existing, fresh *event.Record) *event.Record {
	out := fresh.Clone()
	out.ID = existing.ID
	out.CreatedAt = existing.CreatedAt
	out.UpdatedAt = existing.UpdatedAt
	return out
}

// Reconcile groups records by fingerprint and returns, sorted by ID, every
// record except the one to keep per group: the most recent UpdatedAt, ties
// broken by the highest ID. Reconcile over its own survivors returns nothing.
func Reconcile(records []*event.Record) []*event.Record {
	keep := make(map[string]*event.Record)
	for _, r := range records {
		key := fingerprintKey(r)
		if cur, ok := keep[key]; !ok || newer(r, cur) {
			keep[key] = r
		}
	}

	var remove []*event.Record
	for _, r := range records {
		if keep[fingerprintKey(r)] != r {
			remove = append(remove, r)
		}
	}

	sort.Slice(remove, func(i, j int) bool { return remove[i].ID < remove[j].ID })
	return remove
}

// fingerprintKey renormalizes the title so records stored under older
// normalization rules group with their current twins
func fingerprintKey(r *event.Record) string {
	return event.Fingerprint{
		NormalizedTitle: event.NormalizeTitle(r.Title),
		Date:            r.Date,
		SourceURL:       r.SourceURL,
	}.Key()
}

func newer(a, b *event.Record) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID > b.ID
}
