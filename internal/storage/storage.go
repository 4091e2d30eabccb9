package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pfrederiksen/campus-events/internal/event"
)

// FileName is the store file inside the data directory
const FileName = "events.json"

// maxChanges bounds the change log kept in the store file
const maxChanges = 1000

var (
	// ErrDuplicateFingerprint is returned when a write would leave two
	// records with the same fingerprint
	ErrDuplicateFingerprint = errors.New("record with this fingerprint already exists")

	// ErrNotFound is returned when no record has the requested ID
	ErrNotFound = errors.New("record not found")
)

// fileFormat is the on-disk layout of the store
type fileFormat struct {
	NextID    int64           `json:"next_id"`
	UpdatedAt string          `json:"updated_at"`
	Records   []*event.Record `json:"records"`
	Changes   []*event.Change `json:"changes,omitempty"`
}

// Store is a JSON-file backed record store. It enforces the fingerprint
// uniqueness invariant on every write, assigns IDs and owns the record
// timestamps. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	path    string
	nextID  int64
	records map[int64]*event.Record
	byKey   map[string]int64
	changes []*event.Change
	now     func() time.Time
}

// Open loads the store from dataDir, creating the directory if needed.
// A missing store file yields an empty store.
func Open(dataDir string) (*Store, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &Store{
		path:    filepath.Join(dataDir, FileName),
		nextID:  1,
		records: make(map[int64]*event.Record),
		byKey:   make(map[string]int64),
		now:     func() time.Time { return time.Now().UTC() },
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the store file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading store: %w", err)
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing store: %w", err)
	}

	for _, r := range f.Records {
		if r == nil {
			continue
		}
		// Normalization rules may have changed since the file was written
		r.NormalizedTitle = event.NormalizeTitle(r.Title)
		if r.Categories == nil {
			r.Categories = []string{}
		}
		s.records[r.ID] = r
		if r.ID >= s.nextID {
			s.nextID = r.ID + 1
		}

		// Older files can hold several records per fingerprint; the index
		// keeps the first and Reconcile removes the rest
		key := r.Fingerprint().Key()
		if _, exists := s.byKey[key]; !exists {
			s.byKey[key] = r.ID
		}
	}
	if f.NextID > s.nextID {
		s.nextID = f.NextID
	}
	s.changes = f.Changes

	return nil
}

// Save writes the store to disk atomically
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := fileFormat{
		NextID:    s.nextID,
		UpdatedAt: s.now().Format(time.RFC3339),
		Records:   s.sortedLocked(),
		Changes:   s.changes,
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing store: %w", err)
	}

	return nil
}

// Insert stores a new record and returns its ID. The record's ID,
// NormalizedTitle and timestamps are set on rec as well.
func (s *Store) Insert(rec *event.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.NormalizedTitle = event.NormalizeTitle(rec.Title)
	key := rec.Fingerprint().Key()
	if _, exists := s.byKey[key]; exists {
		return 0, ErrDuplicateFingerprint
	}

	now := s.now()
	rec.ID = s.nextID
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.nextID++

	s.records[rec.ID] = rec.Clone()
	s.byKey[key] = rec.ID
	return rec.ID, nil
}

// Update replaces the stored record with rec.ID. CreatedAt is preserved
// and UpdatedAt refreshed, on both the stored copy and rec.
func (s *Store) Update(rec *event.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[rec.ID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, rec.ID)
	}

	rec.NormalizedTitle = event.NormalizeTitle(rec.Title)
	oldKey := existing.Fingerprint().Key()
	newKey := rec.Fingerprint().Key()
	if owner, exists := s.byKey[newKey]; exists && owner != rec.ID {
		return ErrDuplicateFingerprint
	}

	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = s.now()

	if s.byKey[oldKey] == rec.ID {
		delete(s.byKey, oldKey)
	}
	s.records[rec.ID] = rec.Clone()
	s.byKey[newKey] = rec.ID
	return nil
}

// FindByFingerprint returns a copy of the record indexed under fp
func (s *Store) FindByFingerprint(fp event.Fingerprint) (*event.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byKey[fp.Key()]
	if !ok {
		return nil, false
	}
	return s.records[id].Clone(), true
}

// Get returns a copy of the record with the given ID
func (s *Store) Get(id int64) (*event.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return r.Clone(), nil
}

// All returns copies of every record ordered by ID
func (s *Store) All() []*event.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := s.sortedLocked()
	out := make([]*event.Record, len(sorted))
	for i, r := range sorted {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the number of stored records
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Delete removes the records with the given IDs and returns how many
// existed. The fingerprint index is repaired so a surviving duplicate
// becomes findable.
func (s *Store) Delete(ids ...int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if _, ok := s.records[id]; !ok {
			continue
		}
		delete(s.records, id)
		removed++
	}
	if removed > 0 {
		s.reindexLocked()
	}
	return removed
}

// AppendChanges adds entries to the change log, keeping the newest
func (s *Store) AppendChanges(changes []*event.Change) {
	if len(changes) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.changes = append(s.changes, changes...)
	if over := len(s.changes) - maxChanges; over > 0 {
		s.changes = append([]*event.Change(nil), s.changes[over:]...)
	}
}

// Changes returns the change log, oldest first
func (s *Store) Changes() []*event.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*event.Change(nil), s.changes...)
}

func (s *Store) sortedLocked() []*event.Record {
	out := make([]*event.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) reindexLocked() {
	s.byKey = make(map[string]int64, len(s.records))
	for _, r := range s.sortedLocked() {
		key := r.Fingerprint().Key()
		if _, exists := s.byKey[key]; !exists {
			s.byKey[key] = r.ID
		}
	}
}
