// Package tracker talks to remote catalogs (private trackers) and turns
// their search results into catalog entries.
//
// Two driver families are supported: UNIT3D, which exposes a bearer-token
// filter endpoint with link-based pagination, and F3NIX, which takes the API
// key in the path and pages by number. Known catalogs, their nicknames, and
// upload helper maps come from an embedded registry that configuration can
// extend or override. Every driver waits on a per-catalog rate limiter before
// each request.
package tracker
