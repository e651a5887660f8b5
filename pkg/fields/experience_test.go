package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestYearsFromMonths(t *testing.T) {
	tests := []struct {
		months int
		want   int
	}{
		{42, 4}, // 3y6m rounds up
		{41, 3}, // 3y5m rounds down
		{5, 1},  // sub-year >= 3 months counts as one
		{3, 1},
		{2, 0},
		{0, 0},
		{12, 1},
		{17, 1}, // 1y5m rounds down
		{18, 2}, // 1y6m rounds up
		{24, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, YearsFromMonths(tt.months), "months=%d", tt.months)
	}
}

func TestYearsFromMonthsClamped(t *testing.T) {
	assert.Equal(t, 50, YearsFromMonths(12*80))
}

func TestTotalMonthsMergesOverlaps(t *testing.T) {
	// Jan 2018..Dec 2019 and Jun 2019..Jun 2020 overlap; merged they span
	// Jan 2018..Jun 2020 inclusive.
	ranges := []monthRange{
		{start: 2018 * 12, end: 2019*12 + 11},
		{start: 2019*12 + 5, end: 2020*12 + 5},
	}
	assert.Equal(t, 30, totalMonths(ranges))
}

func TestTotalMonthsDisjoint(t *testing.T) {
	ranges := []monthRange{
		{start: 2020 * 12, end: 2020*12 + 11},
		{start: 2015 * 12, end: 2015*12 + 5},
	}
	// Unsorted input is fine; 12 + 6 months.
	assert.Equal(t, 18, totalMonths(ranges))
	assert.Equal(t, 0, totalMonths(nil))
}

func TestFormatYears(t *testing.T) {
	assert.Equal(t, "0 years", FormatYears(0))
	assert.Equal(t, "1 year", FormatYears(1))
	assert.Equal(t, "5 years", FormatYears(5))
}

func TestParseYears(t *testing.T) {
	assert.Equal(t, 5, ParseYears("5 years"))
	assert.Equal(t, 1, ParseYears("1 year"))
	assert.Equal(t, 0, ParseYears("0 years"))
	assert.Equal(t, 50, ParseYears("90 years"))
	assert.Equal(t, -1, ParseYears("fresher"))
	assert.Equal(t, -1, ParseYears(""))
}

func TestExplicitYears(t *testing.T) {
	tests := []struct {
		text  string
		want  int
		found bool
	}{
		{"Professional with 5 years of experience in testing", 5, true},
		{"over 10 years experience", 10, true},
		{"7+ years of experience", 7, true},
		{"3 and half years of experience", 3, true},
		{"no numbers here", 0, false},
	}
	for _, tt := range tests {
		got, ok := explicitYears(tt.text)
		assert.Equal(t, tt.found, ok, tt.text)
		if tt.found {
			assert.Equal(t, tt.want, got, tt.text)
		}
	}
}

func TestMonthYearToMonths(t *testing.T) {
	months, ok := monthYearToMonths("January", "2020")
	assert.True(t, ok)
	assert.Equal(t, 2020*12, months)

	months, ok = monthYearToMonths("dec", "2019")
	assert.True(t, ok)
	assert.Equal(t, 2019*12+11, months)

	_, ok = monthYearToMonths("notamonth", "2020")
	assert.False(t, ok)
}

func TestDisambiguateTwoDigitYear(t *testing.T) {
	// Anchored on the current year: small values are 20NN, large are 19NN.
	assert.Equal(t, 2019, disambiguateTwoDigitYear(19))
	assert.Equal(t, 1998, disambiguateTwoDigitYear(98))
	assert.Equal(t, 2000, disambiguateTwoDigitYear(0))
}
