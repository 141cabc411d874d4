// Package stream orchestrates the search-then-summarize flow behind the
// streaming client surface.
//
// A Session runs the hybrid search, then streams a generated answer
// grounded in the results, emitting typed updates: status transitions,
// content fragments, and a final metadata record. Sessions can be stopped
// at any point; a stopped session emits no further content.
//
// Updates are delivered through an iterator so callers can range over them;
// the ndjson writer serializes an update sequence onto a wire connection.
package stream
