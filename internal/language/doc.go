// Package language normalizes language codes read from container tags and
// answers the English-track question used when deciding whether a file is
// safe to upload.
//
// A small local table covers the common release languages and their
// spelled-out forms; other codes and IETF tags are resolved with
// golang.org/x/text/language.
package language
