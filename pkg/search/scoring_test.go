package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talentvec/talentvec/pkg/store"
)

func floatPtr(v float64) *float64 { return &v }

func TestSkillScoreMustHaveAll(t *testing.T) {
	cand := map[string]bool{"python": true, "django": true, "aws": true}

	score, matched := skillScore(cand, Filters{MustHaveAll: []string{"python", "django"}}, false)
	assert.InDelta(t, 40.0, score, 1e-9)
	assert.ElementsMatch(t, []string{"python", "django"}, matched)

	score, matched = skillScore(cand, Filters{MustHaveAll: []string{"python", "kafka"}}, false)
	assert.InDelta(t, 20.0, score, 1e-9)
	assert.Equal(t, []string{"python"}, matched)
}

func TestSkillScoreAliases(t *testing.T) {
	cand := map[string]bool{"react": true}
	score, _ := skillScore(cand, Filters{MustHaveAll: []string{"react.js"}}, false)
	assert.InDelta(t, 40.0, score, 1e-9)
}

func TestSkillScoreBestGroup(t *testing.T) {
	cand := map[string]bool{"flask": true}
	score, _ := skillScore(cand, Filters{
		OneOfGroups: [][]string{{"django"}, {"flask"}},
	}, false)
	assert.InDelta(t, 30.0, score, 1e-9)

	// Half of a two-member group scores half the group weight.
	score, _ = skillScore(cand, Filters{
		OneOfGroups: [][]string{{"flask", "fastapi"}},
	}, false)
	assert.InDelta(t, 15.0, score, 1e-9)
}

func TestSkillScoreQABoost(t *testing.T) {
	cand := map[string]bool{"selenium": true, "testng": true}
	withBoost, _ := skillScore(cand, Filters{}, true)
	without, _ := skillScore(cand, Filters{}, false)
	assert.InDelta(t, 10.0, withBoost-without, 1e-9)
}

func TestDesignationScore(t *testing.T) {
	queryRole := "QA Automation Engineer"

	score, weak := designationScore(queryRole, &store.Resume{Designation: "SDET"})
	assert.InDelta(t, 50.0, score, 1e-9)
	assert.False(t, weak)

	score, weak = designationScore(queryRole, &store.Resume{Designation: "Accountant"})
	assert.InDelta(t, -40.0, score, 1e-9)
	assert.True(t, weak)

	score, _ = designationScore("", &store.Resume{Designation: "whatever"})
	assert.InDelta(t, 0.0, score, 1e-9)
}

func TestDesignationScoreSubstring(t *testing.T) {
	// "Payroll Specialist" is not in the canonical table on either side, so
	// the plain substring tier applies.
	score, weak := designationScore("Payroll Specialist",
		&store.Resume{Designation: "Senior Payroll Specialist"})
	assert.InDelta(t, 25.0, score, 1e-9)
	assert.False(t, weak)

	score, weak = designationScore("Payroll Specialist",
		&store.Resume{JobRole: "Payroll Specialist"})
	assert.InDelta(t, 15.0, score, 1e-9)
	assert.True(t, weak)
}

func TestExperienceScore(t *testing.T) {
	min5 := floatPtr(5)

	tests := []struct {
		name  string
		years int
		min   *float64
		max   *float64
		want  float64
	}{
		{"within one year of min", 5, min5, nil, 10},
		{"one under min", 4, min5, nil, 10},
		{"comfortably above min", 8, min5, nil, 8},
		{"two under min", 3, min5, nil, 3},
		{"far under min", 1, min5, nil, -15},
		{"over max", 8, nil, floatPtr(6), -5},
		{"inside band", 4, floatPtr(3), floatPtr(6), 10 + 5},
		{"no bounds", 4, nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, experienceScore(tt.years, true, tt.min, tt.max), 1e-9)
		})
	}

	assert.InDelta(t, 0.0, experienceScore(-1, false, min5, nil), 1e-9)
}

func TestMasterScore(t *testing.T) {
	assert.InDelta(t, 10, masterScore("IT", "IT", false), 1e-9)
	assert.InDelta(t, -50, masterScore("IT", "NON_IT", false), 1e-9)
	assert.InDelta(t, -100, masterScore("IT", "NON_IT", true), 1e-9)
	assert.InDelta(t, 0, masterScore("", "IT", false), 1e-9)
	assert.InDelta(t, 0, masterScore("IT", "", true), 1e-9)
}

func TestNormalizeCombinedBounds(t *testing.T) {
	for _, semantic := range []float64{0, 0.25, 0.5, 0.75, 1} {
		for _, relevance := range []float64{-150, -100, -40, 0, 50, 100, 150} {
			norm := normalizeCombined(semantic, relevance)
			assert.GreaterOrEqual(t, norm, 0.0)
			assert.LessOrEqual(t, norm, 1.0)
		}
	}
	assert.InDelta(t, 1.0, normalizeCombined(1.0, 100), 1e-9)
	assert.InDelta(t, 0.5, normalizeCombined(1.0, 0), 1e-9)
	assert.InDelta(t, 0.0, normalizeCombined(0, -100), 1e-9)
}

func TestFitForScore(t *testing.T) {
	assert.Equal(t, FitPerfect, fitForScore(0.85))
	assert.Equal(t, FitGood, fitForScore(0.70))
	assert.Equal(t, FitGood, fitForScore(0.84))
	assert.Equal(t, FitPartial, fitForScore(0.50))
	assert.Equal(t, FitLow, fitForScore(0.49))
}

func TestFitTierOverrides(t *testing.T) {
	q := &ParsedQuery{
		SearchType: TypeSemantic,
		Filters:    Filters{Designation: "QA Automation Engineer", MinExperience: floatPtr(3)},
	}

	// Exact normalized role with experience satisfied pins Perfect.
	fit := fitTier(0.55, q, &store.Resume{
		Designation: "SDET",
		Experience:  "5 years",
	}, false)
	assert.Equal(t, FitPerfect, fit)

	// Same role, experience unsatisfied, pins Good.
	fit = fitTier(0.95, q, &store.Resume{
		Designation: "SDET",
		Experience:  "1 year",
	}, false)
	assert.Equal(t, FitGood, fit)

	// Recognized role mismatch pins Low regardless of score.
	fit = fitTier(0.95, q, &store.Resume{
		Designation: "Accountant",
	}, false)
	assert.Equal(t, FitLow, fit)

	// Trainee designation pins Low.
	fit = fitTier(0.95, q, &store.Resume{
		Designation: "QA Intern",
	}, false)
	assert.Equal(t, FitLow, fit)

	// Trainee designation pins Low even when the query names no role.
	qn := &ParsedQuery{
		TextForEmbedding: "python developer",
		Filters:          Filters{MustHaveAll: []string{"python"}},
	}
	fit = fitTier(0.95, qn, &store.Resume{Designation: "Software Development Intern"}, false)
	assert.Equal(t, FitLow, fit)

	// A trainee query keeps trainee candidates in play.
	qt := &ParsedQuery{Filters: Filters{Designation: "QA Intern"}}
	fit = fitTier(0.95, qt, &store.Resume{Designation: "QA Intern"}, false)
	assert.NotEqual(t, FitLow, fit)

	// Mastercategory mismatch pins Low.
	qm := &ParsedQuery{MasterCategory: "IT", Filters: Filters{}}
	fit = fitTier(0.95, qm, &store.Resume{MasterCategory: "NON_IT"}, false)
	assert.Equal(t, FitLow, fit)
}

func TestIsQAFlavored(t *testing.T) {
	q := &ParsedQuery{Filters: Filters{Designation: "SDET"}}
	assert.True(t, isQAFlavored(q, "sdet with selenium"))

	q = &ParsedQuery{}
	assert.True(t, isQAFlavored(q, "tester with selenium experience"))
	assert.False(t, isQAFlavored(q, "python backend developer"))
}
