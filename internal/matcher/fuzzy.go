// file: internal/matcher/fuzzy.go
// version: 2.0.0
// guid: a1b2c3d4-e5f6-7890-abcd-ef1234567890

package matcher

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// LevenshteinDistance computes the edit distance between two strings.
func LevenshteinDistance(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	// Single-row DP
	prev := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr := make([]int, lb+1)
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, min(prev[j]+1, prev[j-1]+cost))
		}
		prev = curr
	}
	return prev[lb]
}

// Confidence scores how well a raw result title matches the query title,
// in [0,1]. 1.0 is an exact match after normalization. The score feeds the
// orchestrator's acceptance threshold, so it must be symmetric enough that
// subtitled editions of the queried title still score high.
func Confidence(query, raw string) float64 {
	q := normalize(query)
	r := normalize(raw)
	if q == "" || r == "" {
		return 0
	}
	if q == r {
		return 1.0
	}

	score := 0.0

	// The queried title as a prefix of the listing ("Mistborn" vs
	// "Mistborn: The Final Empire") is a near-certain hit.
	if strings.HasPrefix(r, q) || strings.HasPrefix(q, r) {
		score = 0.95
	} else if strings.Contains(r, q) || strings.Contains(q, r) {
		shorter, longer := q, r
		if len(shorter) > len(longer) {
			shorter, longer = longer, shorter
		}
		ratio := float64(len(shorter)) / float64(len(longer))
		score = 0.6 + 0.3*ratio
	} else if fuzzy.MatchNormalizedFold(q, r) {
		// All query runes appear in order in the result.
		score = 0.65
	}

	// Edit distance on the whole string as a floor.
	dist := LevenshteinDistance(q, r)
	maxLen := max(len(q), len(r))
	if maxLen > 0 {
		similarity := 1.0 - float64(dist)/float64(maxLen)
		if similarity > score {
			score = similarity
		}
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// normalize lowercases and strips non-alphanumeric characters except spaces.
func normalize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
