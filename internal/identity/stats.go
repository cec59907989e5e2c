package identity

// FuzzyMatch records an accepted match below high confidence.
type FuzzyMatch struct {
	FileTitle string
	Title     string
	Score     int
	Type      string
}

// YearMismatch records an accepted match whose year differs from the file.
type YearMismatch struct {
	FileTitle string
	FileYear  int
	Year      int
}

// Stats accumulates identification outcomes across a run.
type Stats struct {
	Processed       int
	Matched         int
	NoMatch         int
	LowVotes        int
	Unverifiable    int
	SkippedBanned   int
	SkippedExisting int
	Errors          int
	Fuzzy           []FuzzyMatch
	YearMismatches  []YearMismatch
}

// Record folds one file's Result into the totals.
func (s *Stats) Record(fileTitle string, fileYear int, r Result) {
	s.Processed++
	s.LowVotes += r.LowVotes
	if r.Unverifiable {
		s.Unverifiable++
		return
	}
	if !r.Matched() {
		s.NoMatch++
		return
	}
	s.Matched++
	m := r.Match
	if m.Fuzzy() {
		s.Fuzzy = append(s.Fuzzy, FuzzyMatch{
			FileTitle: fileTitle,
			Title:     m.Candidate.Title,
			Score:     m.Score,
			Type:      m.Type,
		})
	}
	if fileYear > 0 && m.Candidate.Year > 0 && fileYear != m.Candidate.Year {
		s.YearMismatches = append(s.YearMismatches, YearMismatch{
			FileTitle: fileTitle,
			FileYear:  fileYear,
			Year:      m.Candidate.Year,
		})
	}
}
