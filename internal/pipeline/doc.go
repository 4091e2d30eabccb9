// Package pipeline runs the per-source unit of work.
//
// For each listing page: fetch, extract, categorize, then upsert every
// record through the deduplicator. The extraction step never blocks; the
// optional AI categorizer is called afterwards, one record at a time, and
// falls back to keyword matching on any failure. RunAll processes several
// sources concurrently with bounded parallelism. A failing source is
// logged and counted without stopping the others.
package pipeline
