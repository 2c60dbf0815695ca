package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExactSimilarity(t *testing.T) {
	sim := ExactSimilarity{}

	assert.Equal(t, 1.0, sim.Score("ACME Corp.", "acme corp"))
	assert.Equal(t, 1.0, sim.Score("wire-transfer", "WIRE TRANSFER"))
	assert.Equal(t, 0.0, sim.Score("ACME Corp", "ACME Ltd"))
}

func TestTokenSimilarity_Identical(t *testing.T) {
	sim := TokenSimilarity{}

	assert.Equal(t, 1.0, sim.Score("ACME PAYMENT 42", "ACME PAYMENT 42"))
}

func TestTokenSimilarity_PartialOverlap(t *testing.T) {
	sim := TokenSimilarity{}

	score := sim.Score("ACME", "ACME CONSULTING SERVICES")
	assert.Equal(t, 1.0, score)

	score = sim.Score("ACME GMBH", "ACMEE LTD")
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 1.0)
}

func TestTokenSimilarity_Empty(t *testing.T) {
	sim := TokenSimilarity{}

	assert.Equal(t, 0.0, sim.Score("", "anything"))
	assert.Equal(t, 0.0, sim.Score("", ""))
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("bank", "bank"))
	assert.Equal(t, 1, levenshtein("bank", "tank"))
	assert.Equal(t, 4, levenshtein("", "bank"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}
