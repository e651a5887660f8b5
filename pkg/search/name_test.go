package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreName(t *testing.T) {
	query := "John Smith"
	tokens := strings.Fields(query)

	tests := []struct {
		name      string
		candidate string
		want      float64
	}{
		{"exact", "John Smith", 1.0},
		{"exact different case", "JOHN SMITH", 1.0},
		{"candidate contains query", "John Smith Kumar", 0.8},
		{"query contains candidate", "John", 0.8},
		{"one token matches", "Smithson Patel", 0.6 * 0.5},
		{"phonetic full name", "Jon Smyth", 0.5},
		{"no relation", "Priya Sharma", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreName(query, tokens, tt.candidate), 1e-9)
		})
	}
}

// Ranking is monotone in the score: exact beats substring beats full-name
// phonetic beats single-token phonetic. A phonetic full-name agreement
// (0.5) always outranks a token-level partial (0.3); no match kind jumps
// that ordering.
func TestScoreNameOrdering(t *testing.T) {
	query := "John Smith"
	tokens := strings.Fields(query)

	exact := scoreName(query, tokens, "John Smith")
	substring := scoreName(query, tokens, "John Smith Kumar")
	phonetic := scoreName(query, tokens, "Jon Smyth")
	tokenPhonetic := scoreName("Smith Rajan", []string{"Smith", "Rajan"}, "Verma Smyth")

	assert.Greater(t, exact, substring)
	assert.Greater(t, substring, phonetic)
	assert.Greater(t, phonetic, tokenPhonetic)
}

func TestScoreNameTokenPhonetic(t *testing.T) {
	// No substring overlap, no full-name soundex agreement, but one token
	// agrees phonetically.
	score := scoreName("Smith Rajan", []string{"Smith", "Rajan"}, "Verma Smyth")
	assert.InDelta(t, 0.3, score, 1e-9)
}

func TestNameFit(t *testing.T) {
	assert.Equal(t, FitPerfect, nameFit(1.0))
	assert.Equal(t, FitPerfect, nameFit(0.9))
	assert.Equal(t, FitGood, nameFit(0.8))
	assert.Equal(t, FitPartial, nameFit(0.5))
	assert.Equal(t, FitLow, nameFit(0.3))
}
