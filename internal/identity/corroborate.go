package identity

import (
	"fmt"
	"strings"

	"uploadcheck/internal/language"
)

// minCorroboration is the number of checks that must pass for a
// year-mismatched match to be trusted.
const minCorroboration = 2

// Facts are the locally measured properties of a file used to corroborate
// an identity match.
type Facts struct {
	RuntimeMinutes int
	AudioLanguages []string
}

// Corroboration is the result of checking a match whose year disagrees
// with the local file.
type Corroboration struct {
	Mismatch      bool
	YearClose     bool
	RuntimeMatch  bool
	LanguageMatch bool
}

// Score counts the checks that passed, 0 to 3.
func (c Corroboration) Score() int {
	score := 0
	for _, ok := range []bool{c.YearClose, c.RuntimeMatch, c.LanguageMatch} {
		if ok {
			score++
		}
	}
	return score
}

// Passed reports whether the match can be trusted: either the years agree
// or enough independent checks back it up.
func (c Corroboration) Passed() bool {
	return !c.Mismatch || c.Score() >= minCorroboration
}

// String renders the score and passing checks, e.g. "2/3 (year, runtime)".
func (c Corroboration) String() string {
	if !c.Mismatch {
		return "years match"
	}
	var passed []string
	if c.YearClose {
		passed = append(passed, "year")
	}
	if c.RuntimeMatch {
		passed = append(passed, "runtime")
	}
	if c.LanguageMatch {
		passed = append(passed, "language")
	}
	if len(passed) == 0 {
		return "0/3"
	}
	return fmt.Sprintf("%d/3 (%s)", c.Score(), strings.Join(passed, ", "))
}

// Corroborate checks a matched candidate against local facts. When either
// year is unknown, or both agree, there is no mismatch and nothing else is
// evaluated.
func (p Policy) Corroborate(localYear int, c Candidate, facts Facts) Corroboration {
	if localYear <= 0 || c.Year <= 0 || localYear == c.Year {
		return Corroboration{}
	}
	out := Corroboration{Mismatch: true}
	out.YearClose = abs(localYear-c.Year) <= 1
	if facts.RuntimeMinutes > 0 && c.Runtime > 0 {
		out.RuntimeMatch = abs(facts.RuntimeMinutes-c.Runtime) <= p.RuntimeDelta
	}
	if original := strings.TrimSpace(c.OriginalLanguage); original != "" {
		out.LanguageMatch = language.AnyHasPrefix(facts.AudioLanguages, original)
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
