// Package dedup keeps one record per fingerprint.
//
// Upsert is the per-record path used during scraping: it matches a freshly
// extracted record against the store and updates in place rather than
// duplicating. Reconcile is the batch path: given every stored record it
// returns the ones to delete so that each fingerprint keeps exactly its
// most recently updated record. Both are safe to run repeatedly.
package dedup
