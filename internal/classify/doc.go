// Package classify labels event records by institution and topic.
//
// Institution labels come from an ordered domain-substring table. Topic
// categories come from a Categorizer: the OpenAI-backed implementation is
// optional, and Fallback guarantees the deterministic keyword categorizer
// answers whenever the primary fails.
package classify
