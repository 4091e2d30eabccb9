// Package filter separates real event titles from page noise.
//
// The non-event filter rejects navigation labels, contact details, room codes
// and series names. The title cleaner strips date and time fragments from the
// edges of a title and, when nothing usable remains, promotes a sentence from
// the event description. Sweep applies the same rules to records that are
// already stored so that tightened heuristics can be re-run safely.
package filter
