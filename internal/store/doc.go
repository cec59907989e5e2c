// Package store persists scan state in SQLite.
//
// The files table holds one row per scanned movie file: the parsed filename
// attributes, the ffprobe facts, and the TMDB identity chosen for it. The
// searches table caches one catalog lookup per (file, catalog) pair and the
// verdicts table holds the latest classification for the same pair.
//
// The schema is embedded and versioned. A database created by an older
// schema is rejected with ErrSchemaMismatch; delete the database file to
// start over.
package store
