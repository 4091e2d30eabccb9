// Package event provides the event record types and identity rules.
//
// The event package defines the durable Record, the in-progress Candidate,
// and the Fingerprint triple (normalized title, date, source URL) that
// identifies a record across scrape runs. Field-level change detection is
// used to report what changed when a record is updated in place.
package event
