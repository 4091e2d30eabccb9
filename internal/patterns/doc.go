// Package patterns holds the versioned pattern tables shared by the extraction engine.
//
// A single *Tables value carries every regex set, the navigation denylist, the
// placeholder phrases, the institution domain map and the topic keyword lists.
// It is built once (Default or Load) and passed by reference into every
// extractor, filter and classifier.
package patterns
