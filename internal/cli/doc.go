// Package cli implements the command-line interface for campus-events.
//
// The cli package provides the Cobra-based CLI: scrape fetches configured
// listing pages, upserts their events and optionally announces new ones,
// extract runs the engine over a
// saved page, list and ics report on the store, reconcile and sweep are the
// idempotent maintenance passes, and changes shows the field-level change
// log. Output is text or JSON.
package cli
