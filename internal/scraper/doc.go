// Package scraper fetches institutional event-listing pages.
//
// Fetch issues a GET with the project User-Agent, retries transient
// failures (network errors, 429, 5xx) with exponential backoff, and parses
// the body into a goquery document ready for extraction. Client errors
// such as 404 are not retried.
package scraper
