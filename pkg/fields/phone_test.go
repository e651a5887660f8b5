package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain ten digits", "7089275276", "7089275276"},
		{"formatted", "(708) 927-5276", "7089275276"},
		{"dense header format", "(708)927-5276", "7089275276"},
		{"dots", "708.927.5276", "7089275276"},
		{"country code dropped", "+1 708 927 5276", "7089275276"},
		{"eleven digits leading one", "17089275276", "7089275276"},
		{"eleven digits no leading one", "27089275276", ""},
		{"too short", "927-5276", ""},
		{"too long", "708927527612", ""},
		{"empty", "", ""},
		{"letters only", "call me", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.raw))
		})
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	for _, raw := range []string{"(708) 927-5276", "17089275276", "7089275276"} {
		once := NormalizePhone(raw)
		assert.Equal(t, once, NormalizePhone(once))
	}
}

func TestHeaderPhonePattern(t *testing.T) {
	assert.Equal(t, "(708)927-5276", headerPhonePattern.FindString("John Doe(708)927-5276john@x.com"))
	assert.Equal(t, "", headerPhonePattern.FindString("708-927-5276"))
}
