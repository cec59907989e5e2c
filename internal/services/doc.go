// Package services defines shared utilities consumed by the pipeline stages
// and the external integrations (metadata provider, catalog drivers,
// ffprobe).
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, catalogs, and file
//     paths for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified consistently when they are recorded against a file.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
