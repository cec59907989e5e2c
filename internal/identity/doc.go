// Package identity decides whether a metadata candidate describes the same
// movie as a locally parsed title, and scores corroborating evidence when
// the two disagree on the release year.
//
// Everything here is pure: candidates, runtimes, and language facts are
// fetched by callers and passed in.
package identity
