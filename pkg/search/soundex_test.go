package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSoundex(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Robert", "R163"},
		{"Rupert", "R163"},
		{"Smith", "S530"},
		{"Smyth", "S530"},
		{"Ashcraft", "A261"},
		{"Tymczak", "T522"},
		{"Pfister", "P236"},
		{"Lee", "L000"},
		{"Gutierrez", "G362"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, soundex(tt.in))
		})
	}
}

func TestSoundexEdgeCases(t *testing.T) {
	assert.Equal(t, "", soundex(""))
	assert.Equal(t, "", soundex("123"))
	assert.Equal(t, soundex("smith"), soundex("  SMITH  "))
}
