// Package score ranks stored credential URLs against the page being visited.
//
// Scores are float64 values in [0, 1]. Everything in this package is pure and
// safe for concurrent use.
package score

import (
	"math"

	"github.com/jmcleod/ncpass/internal/util"
	"golang.org/x/text/cases"
)

const (
	matchScore    = 0.7
	runBonus      = 0.3
	boundaryBonus = 0.2

	// minScore is the floor for non-empty strings that are not equal.
	minScore = 1e-9
)

// String returns how well term matches value, ignoring case.
//
// Equal strings score exactly 1 and an empty side scores 0. Otherwise the term is
// walked rune by rune against value: runs of consecutive matches score highest,
// a match after skipped runes decays by 1/(1+penalty*skipped), and a term rune
// missing from the rest of value divides the result by (1+penalty). Any other
// pair of non-empty strings, even one sharing no runes, scores in (0, 1).
func String(value, term string, penalty float64) float64 {
	v := fold(value)
	t := fold(term)
	if v == "" || t == "" {
		return 0
	}
	if v == t {
		return 1
	}
	if penalty < 0 {
		penalty = 0
	}

	vr := []rune(v)
	tr := []rune(t)

	var sum float64
	misses := 0
	start := 0
	for _, r := range tr {
		idx := indexRune(vr, r, start)
		if idx < 0 {
			misses++
			continue
		}
		skipped := idx - start
		var cs float64
		if skipped == 0 {
			cs = matchScore + runBonus
		} else {
			cs = matchScore / (1 + penalty*float64(skipped))
			if isSeparator(vr[idx-1]) {
				cs += boundaryBonus
			}
		}
		sum += cs
		start = idx + 1
	}
	s := 0.5 * (sum/float64(len(vr)) + sum/float64(len(tr)))
	s /= 1 + penalty*float64(misses)
	// Only equal strings may reach 1.
	return min(max(s, minScore), math.Nextafter(1, 0))
}

// fold builds a Caser per call; Casers carry state and must not be shared.
func fold(s string) string {
	return cases.Fold().String(util.Normalize(s))
}

func indexRune(rs []rune, r rune, from int) int {
	for i := from; i < len(rs); i++ {
		if rs[i] == r {
			return i
		}
	}
	return -1
}

func isSeparator(r rune) bool {
	switch r {
	case '.', '-', '_', '/', ' ', '?', '=', '&', '#', ':', '@':
		return true
	}
	return false
}
