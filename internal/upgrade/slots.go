package upgrade

import (
	"fmt"

	"uploadcheck/internal/release"
)

// Category groups qualities whose 2160p releases compete with each other.
type Category string

const (
	CategoryWeb     Category = "WEB"
	CategoryEncode  Category = "ENCODE"
	CategoryRemux   Category = "REMUX"
	CategoryUnknown Category = "UNKNOWN"
)

// CategoryOf maps a quality to its source category. Full discs have no
// category of their own and fall under UNKNOWN.
func CategoryOf(q release.Quality) Category {
	switch q {
	case release.QualityWebRip, release.QualityWebDL:
		return CategoryWeb
	case release.QualityEncode:
		return CategoryEncode
	case release.QualityRemux:
		return CategoryRemux
	default:
		return CategoryUnknown
	}
}

// Web slot identifiers.
const (
	SlotSDR = "SDR"
	SlotDV  = "DV"
	SlotHDR = "HDR"
)

// WebSlot returns the web slot an HDR format occupies. HDR, HDR10+, DV+HDR
// and DV+HDR10+ share the HDR slot.
func WebSlot(f release.HDRFormat) string {
	switch f {
	case release.SDR:
		return SlotSDR
	case release.DolbyVision:
		return SlotDV
	case release.HDR, release.HDR10Plus, release.DolbyVisionHDR, release.DolbyVisionHDR10Plus:
		return SlotHDR
	default:
		return SlotSDR
	}
}

func classifySlots(local release.Attributes, existing []release.Attributes) Verdict {
	category := CategoryOf(local.Quality)
	var peers []release.HDRFormat
	for _, e := range existing {
		if CategoryOf(e.Quality) == category && e.Resolution.Is4K() {
			peers = append(peers, e.HDR)
		}
	}
	if category == CategoryWeb {
		return classifyWebSlot(local.HDR, peers)
	}
	return classifyDominance(category, local.HDR, peers)
}

// classifyWebSlot fills or upgrades one of the three web slots, unless a
// better format is already held in any slot.
func classifyWebSlot(local release.HDRFormat, peers []release.HDRFormat) Verdict {
	slot := WebSlot(local)
	rank := local.Rank()

	best, bestRank := release.SDR, -1
	inSlot, slotRank := release.SDR, -1
	occupied := false
	for _, f := range peers {
		r := f.Rank()
		if r > bestRank {
			best, bestRank = f, r
		}
		if WebSlot(f) != slot {
			continue
		}
		occupied = true
		if r > slotRank {
			inSlot, slotRank = f, r
		}
	}

	switch {
	case bestRank > rank && (!occupied || rank > slotRank):
		return Verdict{Slot: slot, Reason: fmt.Sprintf("Better format already exists in another slot: %s", best)}
	case !occupied:
		return Verdict{Upgrade: true, Slot: slot, Reason: fmt.Sprintf("New %s slot: %s", CategoryWeb, local)}
	case rank > slotRank:
		return Verdict{Upgrade: true, Slot: slot, Reason: fmt.Sprintf("Upgrade in %s slot: %s trumps %s", CategoryWeb, local, inSlot)}
	default:
		return Verdict{Slot: slot, Reason: fmt.Sprintf("Slot already occupied with equal or better format: %s", inSlot)}
	}
}

// classifyDominance requires local to strictly outrank every peer.
func classifyDominance(category Category, local release.HDRFormat, peers []release.HDRFormat) Verdict {
	if len(peers) == 0 {
		return Verdict{Upgrade: true, Reason: fmt.Sprintf("New %s format: %s", category, local)}
	}
	for _, f := range peers {
		if f.Rank() >= local.Rank() {
			return Verdict{Reason: fmt.Sprintf("Equal or better format already exists: %s", f)}
		}
	}
	return Verdict{Upgrade: true, Reason: fmt.Sprintf("Upgrade for %s: %s trumps all existing formats", category, local)}
}
