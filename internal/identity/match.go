package identity

import "uploadcheck/internal/textutil"

const (
	// DefaultThreshold is the minimum token-set score for a candidate to be
	// accepted.
	DefaultThreshold = 75
	// DefaultMinVotes is the vote floor; candidates at or below it are
	// rejected and make the local file unverifiable.
	DefaultMinVotes = 5
	// DefaultRuntimeDelta is the runtime tolerance in minutes used by
	// Corroborate.
	DefaultRuntimeDelta = 5

	highConfidenceScore   = 90
	mediumConfidenceScore = 80
)

// Candidate is one movie returned by the metadata provider.
type Candidate struct {
	ID               int64
	Title            string
	OriginalTitle    string
	Year             int
	VoteCount        int
	Runtime          int
	OriginalLanguage string
}

// Policy holds the identity thresholds. The zero value is not useful; start
// from DefaultPolicy.
type Policy struct {
	Threshold    int
	MinVotes     int
	RuntimeDelta int
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		Threshold:    DefaultThreshold,
		MinVotes:     DefaultMinVotes,
		RuntimeDelta: DefaultRuntimeDelta,
	}
}

// Match is an accepted candidate together with how it matched.
type Match struct {
	Candidate Candidate
	Score     int
	// Type names the compared fields, for example "title_primary" or
	// "original_title_secondary".
	Type string
}

// Fuzzy reports whether the match is below high confidence and worth a
// manual look.
func (m Match) Fuzzy() bool {
	return m.Score < highConfidenceScore
}

// Confidence buckets the score as High, Medium, or Low.
func (m Match) Confidence() string {
	switch {
	case m.Score >= highConfidenceScore:
		return "High"
	case m.Score >= mediumConfidenceScore:
		return "Medium"
	default:
		return "Low"
	}
}

// Result is the outcome of walking a candidate list.
type Result struct {
	Match *Match
	// Unverifiable is set once any candidate fell under the vote floor.
	Unverifiable bool
	LowVotes     int
	Rejected     int
}

// Matched reports whether a candidate reached the title threshold.
func (r Result) Matched() bool { return r.Match != nil }

// Accepted reports whether the match can be trusted. A low-vote candidate
// anywhere before the match makes the file unverifiable regardless of score.
func (r Result) Accepted() bool { return r.Match != nil && !r.Unverifiable }

type titleVariant struct {
	label string
	value string
}

// Score compares the local title (split on "aka") against the candidate's
// title and original title and returns the best token-set score along with
// the match type that produced it.
func Score(localTitle string, c Candidate) (int, string) {
	primary, secondary := SplitAKA(localTitle)
	locals := []titleVariant{{"primary", NormalizeTitle(primary)}}
	if secondary != "" {
		locals = append(locals, titleVariant{"secondary", NormalizeTitle(secondary)})
	}

	var remotes []titleVariant
	title := NormalizeTitle(c.Title)
	if title != "" {
		remotes = append(remotes, titleVariant{"title", title})
	}
	if original := NormalizeTitle(c.OriginalTitle); original != "" && original != title {
		remotes = append(remotes, titleVariant{"original_title", original})
	}

	best, bestType := -1, ""
	for _, remote := range remotes {
		for _, local := range locals {
			score := textutil.TokenSetRatio(remote.value, local.value)
			if score > best {
				best, bestType = score, remote.label+"_"+local.label
			}
		}
	}
	if best < 0 {
		return 0, ""
	}
	return best, bestType
}

// Match walks candidates in provider order and returns the first one whose
// score reaches the threshold. Candidates at or below the vote floor are
// skipped and mark the result unverifiable.
func (p Policy) Match(localTitle string, candidates []Candidate) Result {
	var res Result
	for _, c := range candidates {
		if c.VoteCount <= p.MinVotes {
			res.Unverifiable = true
			res.LowVotes++
			continue
		}
		score, matchType := Score(localTitle, c)
		if matchType == "" || score < p.Threshold {
			res.Rejected++
			continue
		}
		res.Match = &Match{Candidate: c, Score: score, Type: matchType}
		return res
	}
	return res
}
