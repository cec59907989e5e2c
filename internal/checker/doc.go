// Package checker runs the upload check pipeline: scan the library, identify
// files on TMDB, inspect their streams, search every enabled catalog, and
// classify each (file, catalog) pair. Every stage reads and writes the
// store, so stages can be run separately and resumed after an interruption.
//
// A run holds an exclusive file lock for its duration and tags every log line
// with a correlation id.
package checker
