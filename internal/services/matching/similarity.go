package matching

import (
	"math"
	"strings"
)

// Similarity scores two descriptions in [0,1]. The engine treats this as an
// injected capability so the scoring algorithm stays independent of the
// backend (exact match, fuzzy text, embeddings supplied by a caller).
type Similarity interface {
	Score(a, b string) float64
}

// ExactSimilarity returns 1 for normalized-equal descriptions, 0 otherwise.
type ExactSimilarity struct{}

func (ExactSimilarity) Score(a, b string) float64 {
	if normalizeDescription(a) == normalizeDescription(b) {
		return 1
	}
	return 0
}

// TokenSimilarity is the default fuzzy strategy: per-token best Levenshtein
// ratio, averaged over the shorter side's tokens.
type TokenSimilarity struct{}

func (TokenSimilarity) Score(a, b string) float64 {
	aTokens := strings.Fields(normalizeDescription(a))
	bTokens := strings.Fields(normalizeDescription(b))
	if len(aTokens) > len(bTokens) {
		aTokens, bTokens = bTokens, aTokens
	}
	if len(aTokens) == 0 {
		return 0
	}

	total := 0.0
	for _, t := range aTokens {
		best := 0.0
		for _, u := range bTokens {
			dist := levenshtein(t, u)
			maxLen := math.Max(float64(len(t)), float64(len(u)))
			sim := 1 - float64(dist)/maxLen
			if sim > best {
				best = sim
			}
		}
		total += best
	}
	return total / float64(len(aTokens))
}

func normalizeDescription(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.TrimSpace(s)
	return s
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}

	for i := 0; i <= len(a); i++ {
		dp[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		dp[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			dp[i][j] = minOf(
				dp[i-1][j]+1,
				dp[i][j-1]+1,
				dp[i-1][j-1]+cost,
			)
		}
	}
	return dp[len(a)][len(b)]
}

func minOf(a, b, c int) int {
	if a < b && a < c {
		return a
	}
	if b < c {
		return b
	}
	return c
}
