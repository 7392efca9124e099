package service

import (
	"github.com/pmezard/go-difflib/difflib"
)

// closeMatch returns the best candidate whose similarity ratio to word is at
// least cutoff. Candidates are compared rune by rune with the same three
// stage filter (real quick ratio, quick ratio, ratio) as difflib's
// get_close_matches; ties on the ratio go to the lexically greater candidate.
func closeMatch(word string, candidates []string, cutoff float64) (string, bool) {
	matcher := difflib.NewMatcher(nil, runes(word))

	best, bestScore, found := "", 0.0, false
	for _, candidate := range candidates {
		matcher.SetSeq1(runes(candidate))
		if matcher.RealQuickRatio() < cutoff || matcher.QuickRatio() < cutoff {
			continue
		}
		score := matcher.Ratio()
		if score < cutoff {
			continue
		}
		if !found || score > bestScore || (score == bestScore && candidate > best) {
			best, bestScore, found = candidate, score, true
		}
	}
	return best, found
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
