// Package catalog compares a local release against the entries a remote
// catalog already holds for the same movie.
package catalog

import (
	"fmt"
	"path/filepath"
	"strings"

	"uploadcheck/internal/release"
)

// Entry is one release record returned by a catalog search.
type Entry struct {
	// Name is the raw release name as listed on the catalog.
	Name       string
	Attributes release.Attributes
}

// NewEntry normalizes raw tokens into an Entry.
func NewEntry(name string, tokens release.Tokens) Entry {
	return Entry{Name: strings.TrimSpace(name), Attributes: release.Normalize(tokens)}
}

// Comparison summarizes what a catalog holds relative to a local file.
type Comparison struct {
	// Exists is true when at least one usable entry was found.
	Exists          bool
	Duplicate       bool
	DuplicateReason string
	// Existing holds the distinct (quality, resolution, HDR) tuples of
	// usable entries. Entries that agree on the tuple collapse into the
	// first one unless a variant option tells them apart.
	Existing []release.Attributes
	// Skipped counts entries without quality or resolution.
	Skipped int
}

// Labels returns the distinct human-readable labels of Existing in order.
func (c Comparison) Labels() []string {
	seen := make(map[string]struct{}, len(c.Existing))
	var labels []string
	for _, attrs := range c.Existing {
		label := attrs.Label()
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}

// Option adjusts how Compare collapses entries.
type Option func(*options)

type options struct {
	variant func(release.Attributes) bool
}

// WithVariant keeps entries with the same format apart when fn disagrees
// on them. Classification uses it to separate allow-listed webrip groups
// from ordinary webrips.
func WithVariant(fn func(release.Attributes) bool) Option {
	return func(o *options) { o.variant = fn }
}

// Compare checks entries against the local file. An entry whose name equals
// the local file name (with or without extension, ignoring case) marks a
// duplicate before anything else is considered. Otherwise an entry with the
// same quality, resolution tier, and HDR format is an attribute duplicate.
func Compare(local release.Attributes, localName string, entries []Entry, opts ...Option) Comparison {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	out := Comparison{
		Existing: distinct(entries, o.variant),
		Skipped:  countIncomplete(entries),
	}
	out.Exists = len(out.Existing) > 0

	for _, e := range entries {
		if nameMatches(e.Name, localName) {
			out.Exists = true
			out.Duplicate = true
			out.DuplicateReason = fmt.Sprintf("Exact filename match: %s", e.Name)
			return out
		}
	}
	for _, attrs := range out.Existing {
		if local.SameFormat(attrs) {
			out.Duplicate = true
			out.DuplicateReason = fmt.Sprintf("Same format already on catalog: %s", attrs.Label())
			break
		}
	}
	return out
}

func nameMatches(remote, local string) bool {
	remote = strings.TrimSpace(remote)
	local = strings.TrimSpace(local)
	if remote == "" || local == "" {
		return false
	}
	if strings.EqualFold(remote, local) {
		return true
	}
	stem := strings.TrimSuffix(local, filepath.Ext(local))
	return stem != local && strings.EqualFold(remote, stem)
}

func distinct(entries []Entry, variant func(release.Attributes) bool) []release.Attributes {
	seen := make(map[string]struct{}, len(entries))
	var out []release.Attributes
	for _, e := range entries {
		if !e.Attributes.Complete() {
			continue
		}
		key := e.Attributes.Key()
		if variant != nil && variant(e.Attributes) {
			key += "|variant"
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e.Attributes)
	}
	return out
}

func countIncomplete(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if !e.Attributes.Complete() {
			n++
		}
	}
	return n
}
