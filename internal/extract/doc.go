// Package extract turns parsed event-listing pages into event records.
//
// Extraction runs in stages: candidate blocks are selected from the
// document, then date, time, title/speaker and location fields are pulled
// from each block. Candidates without a date, or whose title is page noise,
// are dropped silently. Surviving candidates are cleaned, labeled with an
// institution and keyword topics, and returned as records. Extract never
// blocks and holds no mutable state between calls.
package extract
