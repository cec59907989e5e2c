// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video/subtitle stream properties
//
// Inspect executes ffprobe and returns a parsed Result. Helper methods on
// Result expose the facts the checker needs: audio and subtitle languages,
// runtime in minutes, and a free-text blob of HDR markers suitable for
// release.DetectHDR.
package ffprobe
