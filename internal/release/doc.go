// Package release canonicalizes free-text release attributes into closed
// enumerations.
//
// Quality, resolution, and HDR tokens arrive from filename parsing, media
// inspection, and catalog API fields in many spellings. ParseQuality,
// ParseResolution, DetectHDR, and Normalize fold them into the Quality,
// Resolution, and HDRFormat types so the comparison code downstream only ever
// sees a small, ordered vocabulary. Unrecognized tokens never produce errors:
// quality and resolution degrade to a missing value, HDR degrades to SDR.
//
// Every parser is idempotent: feeding a canonical value back through it
// returns the same value.
package release
