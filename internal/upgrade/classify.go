package upgrade

import "uploadcheck/internal/release"

// Verdict is the outcome of one upgrade classification.
type Verdict struct {
	Upgrade bool
	Reason  string
	// Slot is set for 2160p web releases: "SDR", "DV", or "HDR".
	Slot string
}

const (
	reasonNothingToCompare = "No existing releases to compare against"
	reasonHierarchyUpgrade = "Quality/resolution upgrade over existing files"
	reasonNotAnUpgrade     = "Not an upgrade over existing files"
)

// Classify decides whether local improves on existing. Resolution tier
// alone selects the algorithm: 2160p goes through the HDR slot model and
// everything else through the quality/resolution hierarchy.
func (p Policy) Classify(local release.Attributes, existing []release.Attributes) Verdict {
	if len(existing) == 0 {
		return Verdict{Reason: reasonNothingToCompare}
	}
	if local.Resolution.Is4K() {
		return classifySlots(local, existing)
	}
	return p.classifyHierarchy(local, existing)
}

// classifyHierarchy requires local to beat every existing entry, either on
// quality level or on resolution at equal quality.
func (p Policy) classifyHierarchy(local release.Attributes, existing []release.Attributes) Verdict {
	localLevel := p.QualityLevel(local)
	localRes := local.Resolution.Rank()
	for _, e := range existing {
		if e.Quality == local.Quality && e.Resolution == local.Resolution {
			continue
		}
		level := p.QualityLevel(e)
		if localLevel < level {
			return Verdict{Reason: reasonNotAnUpgrade}
		}
		if localLevel == level && localRes <= e.Resolution.Rank() {
			return Verdict{Reason: reasonNotAnUpgrade}
		}
	}
	return Verdict{Upgrade: true, Reason: reasonHierarchyUpgrade}
}
