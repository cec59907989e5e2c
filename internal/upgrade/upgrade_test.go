package upgrade

import (
	"testing"

	"uploadcheck/internal/release"
)

func attrs(quality, resolution, hdr, group string) release.Attributes {
	return release.Normalize(release.Tokens{Quality: quality, Resolution: resolution, HDR: hdr, Group: group})
}

func TestClassifyNothingToCompare(t *testing.T) {
	v := Policy{}.Classify(attrs("BluRay", "1080p", "", ""), nil)
	if v.Upgrade || v.Reason != reasonNothingToCompare {
		t.Fatalf("unexpected verdict %+v", v)
	}
}

func TestClassifyHierarchy(t *testing.T) {
	tests := []struct {
		name     string
		local    release.Attributes
		existing []release.Attributes
		want     bool
	}{
		{
			name:     "remux dominates encode",
			local:    attrs("encode", "1080p", "", ""),
			existing: []release.Attributes{attrs("remux", "1080p", "", ""), attrs("webrip", "720p", "", "")},
			want:     false,
		},
		{
			name:     "higher quality beats everything",
			local:    attrs("remux", "1080p", "", ""),
			existing: []release.Attributes{attrs("encode", "1080p", "", ""), attrs("web-dl", "1080p", "", "")},
			want:     true,
		},
		{
			name:     "same quality higher resolution",
			local:    attrs("encode", "1080p", "", ""),
			existing: []release.Attributes{attrs("encode", "720p", "", "")},
			want:     true,
		},
		{
			name:     "same quality lower resolution",
			local:    attrs("encode", "720p", "", ""),
			existing: []release.Attributes{attrs("encode", "1080p", "", "")},
			want:     false,
		},
		{
			name:     "interlaced below progressive",
			local:    attrs("encode", "1080i", "", ""),
			existing: []release.Attributes{attrs("encode", "720p", "", ""), attrs("encode", "1080p", "", "")},
			want:     false,
		},
		{
			name:     "exact tie is skipped",
			local:    attrs("encode", "1080p", "", ""),
			existing: []release.Attributes{attrs("encode", "1080p", "", ""), attrs("web-dl", "1080p", "", "")},
			want:     true,
		},
		{
			name:     "existing 4k of same quality blocks",
			local:    attrs("remux", "1080p", "", ""),
			existing: []release.Attributes{attrs("remux", "2160p", "HDR", "")},
			want:     false,
		},
		{
			name:     "full disc on top",
			local:    attrs("UHD 100", "1080p", "", ""),
			existing: []release.Attributes{attrs("remux", "1080p", "", "")},
			want:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Policy{}.Classify(tt.local, tt.existing)
			if v.Upgrade != tt.want {
				t.Fatalf("Classify() = %+v, want upgrade=%v", v, tt.want)
			}
			if v.Slot != "" {
				t.Fatalf("expected no slot below 2160p, got %q", v.Slot)
			}
		})
	}
}

func TestClassifyHierarchyIsMonotonic(t *testing.T) {
	order := []string{"webrip", "web-dl", "encode", "remux", "fulldisc"}
	resolutions := []string{"720p", "1080p"}
	for i := range order {
		for j := i + 1; j < len(order); j++ {
			for _, lowRes := range resolutions {
				for _, highRes := range resolutions {
					if release.ParseResolution(highRes).Rank() < release.ParseResolution(lowRes).Rank() {
						continue
					}
					local := attrs(order[j], highRes, "", "")
					existing := []release.Attributes{attrs(order[i], lowRes, "", "")}
					if v := (Policy{}).Classify(local, existing); !v.Upgrade {
						t.Errorf("%s %s over %s %s: expected upgrade, got %+v", order[j], highRes, order[i], lowRes, v)
					}
				}
			}
		}
	}
}

func TestHQWebRipPromotion(t *testing.T) {
	p := NewPolicy([]string{" FLUX ", ""})
	if !p.IsHQWebRip(attrs("webrip", "1080p", "", "flux")) {
		t.Fatal("expected case-insensitive group match")
	}
	if !p.IsHQWebRip(attrs("webrip", "1080p", "", "FLUX2")) {
		t.Fatal("expected substring group match")
	}
	if p.IsHQWebRip(attrs("web-dl", "1080p", "", "FLUX")) {
		t.Fatal("only webrips are promoted")
	}

	local := attrs("webrip", "1080p", "", "FLUX")
	if v := p.Classify(local, []release.Attributes{attrs("encode", "1080p", "", "GRP")}); !v.Upgrade {
		t.Fatalf("expected promoted webrip to beat an encode, got %+v", v)
	}
	if v := p.Classify(local, []release.Attributes{attrs("remux", "1080p", "", "GRP")}); v.Upgrade {
		t.Fatalf("expected promoted webrip to stay level with remux, got %+v", v)
	}

	plain := attrs("encode", "1080p", "", "GRP")
	if v := p.Classify(plain, []release.Attributes{attrs("webrip", "1080p", "", "FLUX")}); v.Upgrade {
		t.Fatalf("expected existing promoted webrip to block an encode, got %+v", v)
	}
	if v := (Policy{}).Classify(plain, []release.Attributes{attrs("webrip", "1080p", "", "FLUX")}); !v.Upgrade {
		t.Fatalf("expected plain webrip to lose to encode, got %+v", v)
	}
}

func TestClassifyWebSlots(t *testing.T) {
	tests := []struct {
		name     string
		local    release.Attributes
		existing []release.Attributes
		upgrade  bool
		slot     string
		reason   string
	}{
		{
			name:     "fills empty DV slot",
			local:    attrs("webrip", "2160p", "DV", ""),
			existing: []release.Attributes{attrs("webrip", "2160p", "", "")},
			upgrade:  true,
			slot:     SlotDV,
			reason:   "New WEB slot: DV",
		},
		{
			name:     "better format in another slot",
			local:    attrs("webrip", "2160p", "DV", ""),
			existing: []release.Attributes{attrs("webrip", "2160p", "", ""), attrs("web-dl", "2160p", "DV+HDR10+", "")},
			upgrade:  false,
			slot:     SlotDV,
			reason:   "Better format already exists in another slot: DV+HDR10+",
		},
		{
			name:     "upgrades within HDR slot",
			local:    attrs("web-dl", "2160p", "DV HDR10+", ""),
			existing: []release.Attributes{attrs("web-dl", "2160p", "HDR10", "")},
			upgrade:  true,
			slot:     SlotHDR,
			reason:   "Upgrade in WEB slot: DV+HDR10+ trumps HDR",
		},
		{
			name:     "occupied with equal format",
			local:    attrs("web-dl", "2160p", "HDR10+", ""),
			existing: []release.Attributes{attrs("webrip", "2160p", "HDR10+", "")},
			upgrade:  false,
			slot:     SlotHDR,
			reason:   "Slot already occupied with equal or better format: HDR10+",
		},
		{
			name:     "ignores other categories and tiers",
			local:    attrs("web-dl", "2160p", "", ""),
			existing: []release.Attributes{attrs("remux", "2160p", "DV+HDR10+", ""), attrs("web-dl", "1080p", "", "")},
			upgrade:  true,
			slot:     SlotSDR,
			reason:   "New WEB slot: SDR",
		},
		{
			name:     "slot upgrade blocked by better format elsewhere",
			local:    attrs("web-dl", "2160p", "HDR10+", ""),
			existing: []release.Attributes{attrs("web-dl", "2160p", "HDR", ""), attrs("web-dl", "2160p", "DV", "")},
			upgrade:  false,
			slot:     SlotHDR,
			reason:   "Better format already exists in another slot: DV",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Policy{}.Classify(tt.local, tt.existing)
			if v.Upgrade != tt.upgrade || v.Slot != tt.slot || v.Reason != tt.reason {
				t.Fatalf("Classify() = %+v, want upgrade=%v slot=%q reason=%q", v, tt.upgrade, tt.slot, tt.reason)
			}
		})
	}
}

func TestClassifyStrictDominance(t *testing.T) {
	tests := []struct {
		name     string
		local    release.Attributes
		existing []release.Attributes
		upgrade  bool
		reason   string
	}{
		{
			name:     "remux beats single lower entry",
			local:    attrs("remux", "2160p", "HDR10+", ""),
			existing: []release.Attributes{attrs("remux", "2160p", "HDR", "")},
			upgrade:  true,
			reason:   "Upgrade for REMUX: HDR10+ trumps all existing formats",
		},
		{
			name:     "remux must beat every entry",
			local:    attrs("remux", "2160p", "HDR10+", ""),
			existing: []release.Attributes{attrs("remux", "2160p", "HDR", ""), attrs("remux", "2160p", "DV", "")},
			upgrade:  false,
			reason:   "Equal or better format already exists: DV",
		},
		{
			name:     "equal format blocks encode",
			local:    attrs("encode", "2160p", "HDR", ""),
			existing: []release.Attributes{attrs("bluray", "2160p", "HDR10", "")},
			upgrade:  false,
			reason:   "Equal or better format already exists: HDR",
		},
		{
			name:     "empty category is new format",
			local:    attrs("encode", "2160p", "DV", ""),
			existing: []release.Attributes{attrs("remux", "2160p", "DV+HDR10+", ""), attrs("encode", "1080p", "", "")},
			upgrade:  true,
			reason:   "New ENCODE format: DV",
		},
		{
			name:     "full disc compared with its own kind",
			local:    attrs("UHD 66", "2160p", "HDR", ""),
			existing: []release.Attributes{attrs("BD 50", "2160p", "DV", "")},
			upgrade:  false,
			reason:   "Equal or better format already exists: DV",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Policy{}.Classify(tt.local, tt.existing)
			if v.Upgrade != tt.upgrade || v.Reason != tt.reason || v.Slot != "" {
				t.Fatalf("Classify() = %+v, want upgrade=%v reason=%q", v, tt.upgrade, tt.reason)
			}
		})
	}
}

func TestNonFourKNeverUsesSlots(t *testing.T) {
	local := attrs("webrip", "1080p", "DV", "")
	existing := []release.Attributes{attrs("web-dl", "1080p", "", "")}
	v := Policy{}.Classify(local, existing)
	if v.Slot != "" || v.Upgrade || v.Reason != reasonNotAnUpgrade {
		t.Fatalf("expected hierarchy path without slot, got %+v", v)
	}
}

func TestCategoryOf(t *testing.T) {
	tests := map[release.Quality]Category{
		release.QualityWebRip:   CategoryWeb,
		release.QualityWebDL:    CategoryWeb,
		release.QualityEncode:   CategoryEncode,
		release.QualityRemux:    CategoryRemux,
		release.QualityFullDisc: CategoryUnknown,
		release.QualityUnknown:  CategoryUnknown,
	}
	for q, want := range tests {
		if got := CategoryOf(q); got != want {
			t.Errorf("CategoryOf(%s) = %s, want %s", q, got, want)
		}
	}
}
