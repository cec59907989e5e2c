// Package safety folds identity, comparison, and upgrade results into the
// final per-catalog verdict for a file.
package safety

import (
	"fmt"
	"strings"

	"uploadcheck/internal/catalog"
	"uploadcheck/internal/identity"
	"uploadcheck/internal/language"
	"uploadcheck/internal/release"
	"uploadcheck/internal/upgrade"
)

// Outcome is the decision for one (file, catalog) pair.
type Outcome string

const (
	OutcomeSafe   Outcome = "safe"
	OutcomeRisky  Outcome = "risky"
	OutcomeDanger Outcome = "danger"
	// OutcomeSkip removes the file from the catalog's report.
	OutcomeSkip Outcome = "skip"
)

// Outcomes lists the reportable outcomes in display order.
var Outcomes = []Outcome{OutcomeSafe, OutcomeRisky, OutcomeDanger}

const (
	ReasonIncomplete     = "Quality or resolution could not be determined"
	ReasonYearMismatch   = "Year mismatch with failed verification checks"
	ReasonNoEnglish      = "No English audio or subtitles found"
	ReasonNewRelease     = "New release - not found on tracker"
	ReasonMaybeDowngrade = "New quality/resolution but may be downgrade from existing"
)

// Media holds the language facts read from the container. A nil *Media
// means the file was never inspected and the language check is skipped.
type Media struct {
	AudioLanguages    []string
	SubtitleLanguages []string
}

// Input gathers everything known about one file for one catalog.
type Input struct {
	Local        release.Attributes
	Identity     identity.Corroboration
	Media        *Media
	Comparison   catalog.Comparison
	BannedGroups []string
}

// Verdict is the final classification.
type Verdict struct {
	Outcome Outcome
	Reason  string
	Details []string
	// Upgrade is true when the safe outcome came from the upgrade classifier.
	Upgrade bool
}

// Decide classifies one file for one catalog. A banned group skips the
// file outright. Otherwise every danger condition is collected and the
// first becomes the reason. Files that pass continue to the comparison:
// nothing on the catalog is safe, a duplicate is skipped, an upgrade is
// safe, and anything else is risky.
func Decide(policy upgrade.Policy, in Input) Verdict {
	if group, ok := bannedGroup(in.Local.Group, in.BannedGroups); ok {
		return Verdict{
			Outcome: OutcomeSkip,
			Reason:  fmt.Sprintf("Release group %s is banned on this catalog", group),
		}
	}

	if dangers := dangerReasons(in); len(dangers) > 0 {
		return Verdict{Outcome: OutcomeDanger, Reason: dangers[0], Details: dangers}
	}

	cmp := in.Comparison
	if !cmp.Exists && !cmp.Duplicate {
		return Verdict{Outcome: OutcomeSafe, Reason: ReasonNewRelease}
	}
	if cmp.Duplicate {
		return Verdict{Outcome: OutcomeSkip, Reason: cmp.DuplicateReason}
	}

	existing := strings.Join(cmp.Labels(), ", ")
	v := policy.Classify(in.Local, cmp.Existing)
	if v.Upgrade {
		return Verdict{
			Outcome: OutcomeSafe,
			Reason:  v.Reason,
			Details: []string{"Upgrade from: " + existing},
			Upgrade: true,
		}
	}
	return Verdict{
		Outcome: OutcomeRisky,
		Reason:  ReasonMaybeDowngrade,
		Details: []string{v.Reason, "Existing qualities: " + existing},
	}
}

func dangerReasons(in Input) []string {
	var reasons []string
	if !in.Local.Complete() {
		reasons = append(reasons, ReasonIncomplete)
	}
	if !in.Identity.Passed() {
		reasons = append(reasons, ReasonYearMismatch)
	}
	if in.Media != nil && !language.HasEnglish(in.Media.AudioLanguages, in.Media.SubtitleLanguages) {
		reasons = append(reasons, ReasonNoEnglish)
	}
	return reasons
}

func bannedGroup(group string, banned []string) (string, bool) {
	group = strings.TrimSpace(group)
	if group == "" {
		return "", false
	}
	for _, b := range banned {
		if strings.EqualFold(group, strings.TrimSpace(b)) {
			return group, true
		}
	}
	return "", false
}
