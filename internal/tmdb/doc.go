// Package tmdb provides the small TMDB API client used by the identify stage.
//
// It exposes movie search (adult titles included, optional release year),
// movie detail lookups for runtime, original language, and IMDb id, and an
// authenticated configuration probe used by preflight checks. HTTP failures
// are tagged with services error markers so callers can tell a bad key from
// a transient outage.
package tmdb
