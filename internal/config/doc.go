// Package config loads, normalizes, and validates uploadcheck configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and UPLOADCHECK_<CATALOG>_API_KEY. The Config type centralizes
// scan roots, identification thresholds, catalog credentials, and export
// settings so every stage reads them from one place.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical catalog names, and clear validation errors.
package config
