// Package storage provides the JSON-file record store.
//
// The store keeps every canonical event record in a single events.json
// file under the data directory (default ~/.local/share/campus-events/),
// together with a bounded log of field-level changes. It is the boundary
// that enforces one record per fingerprint: a colliding insert or update
// fails with ErrDuplicateFingerprint.
package storage
