package release

import (
	"regexp"
	"strings"
)

// HDRFormat is the dynamic range format of a release. Values are ordered:
// a larger value is a better format.
type HDRFormat int

const (
	SDR HDRFormat = iota
	HDR
	HDR10Plus
	DolbyVision
	DolbyVisionHDR
	DolbyVisionHDR10Plus
)

var hdrNames = [...]string{
	SDR:                  "SDR",
	HDR:                  "HDR",
	HDR10Plus:            "HDR10+",
	DolbyVision:          "DV",
	DolbyVisionHDR:       "DV+HDR",
	DolbyVisionHDR10Plus: "DV+HDR10+",
}

var (
	dolbyVisionPattern = regexp.MustCompile(`\bdolby\s*vision\b|\bdolbyvision\b|\bdv\b|\bdvhe\b|\bdovi\b`)
	hdr10PlusPattern   = regexp.MustCompile(`hdr10\+|hdr10plus|hdr10\s+plus|smpte\s*st\s*2094.*?app\s*4|smpte2094-40`)
	hdrPattern         = regexp.MustCompile(`\bhdr\b|\bhdr10\b|\bst\s*2084\b|smpte2084|\bpq\b|\bhlg\b|arib-std-b67`)
)

// String returns the canonical token, for example "DV+HDR10+".
func (f HDRFormat) String() string {
	if f < SDR || int(f) >= len(hdrNames) {
		return hdrNames[SDR]
	}
	return hdrNames[f]
}

// Rank returns the position of f in the HDR ordering. Out-of-range values
// rank as SDR.
func (f HDRFormat) Rank() int {
	if f < SDR || int(f) >= len(hdrNames) {
		return int(SDR)
	}
	return int(f)
}

// HDRFromFlags collapses individual format markers into one HDRFormat.
func HDRFromFlags(dolbyVision, hdr10Plus, hdr bool) HDRFormat {
	switch {
	case dolbyVision && hdr10Plus:
		return DolbyVisionHDR10Plus
	case dolbyVision && hdr:
		return DolbyVisionHDR
	case dolbyVision:
		return DolbyVision
	case hdr10Plus:
		return HDR10Plus
	case hdr:
		return HDR
	default:
		return SDR
	}
}

// DetectHDR scans a free-text blob (container metadata, stream titles,
// catalog fields) for HDR markers. A blob without markers is SDR.
func DetectHDR(blob string) HDRFormat {
	lowered := strings.ToLower(blob)
	if strings.TrimSpace(lowered) == "" {
		return SDR
	}
	return HDRFromFlags(
		dolbyVisionPattern.MatchString(lowered),
		hdr10PlusPattern.MatchString(lowered),
		hdrPattern.MatchString(lowered),
	)
}

// ParseHDR maps a format label to an HDRFormat. It accepts canonical
// tokens as well as looser spellings such as "DV + HDR10+" or
// "Dolby Vision, HDR10". Unknown labels degrade to SDR.
func ParseHDR(label string) HDRFormat {
	lowered := strings.ToLower(strings.TrimSpace(label))
	if lowered == "" {
		return SDR
	}
	lowered = strings.NewReplacer("hdr10plus", "hdr10+", "hdr10 plus", "hdr10+").Replace(lowered)
	hasDV := strings.Contains(lowered, "dv") || strings.Contains(lowered, "dolby vision") || strings.Contains(lowered, "dolbyvision")
	return HDRFromFlags(
		hasDV,
		strings.Contains(lowered, "hdr10+"),
		strings.Contains(lowered, "hdr"),
	)
}
