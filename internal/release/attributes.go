package release

import "strings"

// Tokens is the raw, unnormalized view of a release as delivered by a
// filename parser, a media inspector, or a catalog API.
type Tokens struct {
	Quality    string
	Resolution string
	HDR        string
	Group      string
}

// Attributes is the normalized description of one release.
type Attributes struct {
	Quality    Quality
	Resolution Resolution
	HDR        HDRFormat
	Group      string
}

// Normalize folds raw tokens into Attributes. The input is not modified.
// HDR is read with DetectHDR so both free-text blobs and canonical labels
// are accepted.
func Normalize(t Tokens) Attributes {
	return Attributes{
		Quality:    ParseQuality(t.Quality),
		Resolution: ParseResolution(t.Resolution),
		HDR:        DetectHDR(t.HDR),
		Group:      strings.TrimSpace(t.Group),
	}
}

// Tokens renders the attributes back into their canonical token form.
func (a Attributes) Tokens() Tokens {
	q := ""
	if a.Quality.Known() {
		q = a.Quality.String()
	}
	return Tokens{
		Quality:    q,
		Resolution: a.Resolution.String(),
		HDR:        a.HDR.String(),
		Group:      a.Group,
	}
}

// Complete reports whether both quality and resolution are known.
// Incomplete attributes cannot take part in upgrade reasoning.
func (a Attributes) Complete() bool {
	return a.Quality.Known() && a.Resolution.Known()
}

// Missing lists the dimensions that could not be determined.
func (a Attributes) Missing() []string {
	var missing []string
	if !a.Quality.Known() {
		missing = append(missing, "quality")
	}
	if !a.Resolution.Known() {
		missing = append(missing, "resolution")
	}
	return missing
}

// SameFormat reports whether a and b agree on quality, resolution tier,
// and HDR format. The release group is ignored.
func (a Attributes) SameFormat(b Attributes) bool {
	return a.Quality == b.Quality && SameTier(a.Resolution, b.Resolution) && a.HDR == b.HDR
}

// Key returns a stable identity for de-duplicating attribute tuples.
func (a Attributes) Key() string {
	return a.Quality.String() + "|" + a.Resolution.String() + "|" + a.HDR.String()
}

// Label renders a short human-readable description such as
// "remux 2160p DV+HDR10+".
func (a Attributes) Label() string {
	parts := []string{a.Quality.String()}
	if a.Resolution.Known() {
		parts = append(parts, a.Resolution.String())
	}
	if a.HDR != SDR || a.Resolution.Is4K() {
		parts = append(parts, a.HDR.String())
	}
	return strings.Join(parts, " ")
}
