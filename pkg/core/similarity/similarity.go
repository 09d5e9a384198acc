// Package similarity scores account names by normalized edit distance.
package similarity

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"statement_transcriber/pkg/core/textnorm"
)

// DefaultThreshold is the minimum score (exclusive) for a fuzzy match.
const DefaultThreshold = 0.7

// Similarity returns 1 - distance/maxLen over runes. Empty input scores 0.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// Match is the winning candidate of FindBestMatch.
type Match struct {
	Candidate string
	Index     int
	Score     float64
}

// FindBestMatch strong-normalizes target and candidates and returns the
// highest-scoring candidate whose score is strictly above threshold.
// On ties the earliest candidate wins.
func FindBestMatch(target string, candidates []string, threshold float64) (Match, bool) {
	key := textnorm.Key(target)
	best := Match{Index: -1}
	for i, c := range candidates {
		score := Similarity(key, textnorm.Key(c))
		if score > best.Score {
			best = Match{Candidate: c, Index: i, Score: score}
		}
	}
	if best.Index < 0 || best.Score <= threshold {
		return Match{Index: -1}, false
	}
	return best, true
}
