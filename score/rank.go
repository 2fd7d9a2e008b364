package score

import (
	"cmp"
	"slices"
)

// Candidate is a stored URL to be ranked, keyed by the caller's entry ID.
type Candidate struct {
	ID  string
	URL URL
}

// Match is a ranked candidate.
type Match struct {
	Candidate
	Score float64
}

// Rank scores every candidate against target and returns them best first.
// Candidates scoring below the threshold are dropped; ties keep input order.
func Rank(target URL, candidates []Candidate, opts ...Option) []Match {
	o := newOptions(opts)

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		s := Score(c.URL, target, opts...)
		if s <= 0 || s < o.threshold {
			continue
		}
		matches = append(matches, Match{Candidate: c, Score: s})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if o.limit > 0 && len(matches) > o.limit {
		matches = matches[:o.limit]
	}
	return matches
}
