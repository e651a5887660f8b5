package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func skillIn(skill string) map[string]interface{} {
	return map[string]interface{}{
		"skills": map[string]interface{}{"$in": []interface{}{skill}},
	}
}

func TestCompileFilterSkillsAndExperience(t *testing.T) {
	got := CompileFilter(FilterSpec{
		MustHaveAll:   []string{"python", "django"},
		MinExperience: floatPtr(5),
	})

	want := map[string]interface{}{
		"$and": []interface{}{
			skillIn("python"),
			skillIn("django"),
			map[string]interface{}{
				"experience_years": map[string]interface{}{"$gte": float64(5)},
			},
		},
	}
	assert.Equal(t, want, got)
}

func TestCompileFilterSingleClause(t *testing.T) {
	got := CompileFilter(FilterSpec{MustHaveAll: []string{"java"}})
	assert.Equal(t, skillIn("java"), got)
}

func TestCompileFilterCanonicalizesSkills(t *testing.T) {
	got := CompileFilter(FilterSpec{MustHaveAll: []string{"react.js"}})
	assert.Equal(t, skillIn("react"), got)
}

func TestCompileFilterOneOfGroups(t *testing.T) {
	got := CompileFilter(FilterSpec{
		OneOfGroups: [][]string{{"django"}, {"flask"}},
	})
	want := map[string]interface{}{
		"$or": []interface{}{skillIn("django"), skillIn("flask")},
	}
	assert.Equal(t, want, got)
}

func TestCompileFilterGroupConjunction(t *testing.T) {
	got := CompileFilter(FilterSpec{
		OneOfGroups: [][]string{{"aws", "terraform"}, {"azure"}},
	})
	want := map[string]interface{}{
		"$or": []interface{}{
			map[string]interface{}{"$and": []interface{}{skillIn("aws"), skillIn("terraform")}},
			skillIn("azure"),
		},
	}
	assert.Equal(t, want, got)
}

func TestCompileFilterExperienceBounds(t *testing.T) {
	got := CompileFilter(FilterSpec{
		MinExperience: floatPtr(3),
		MaxExperience: floatPtr(5),
	})
	want := map[string]interface{}{
		"experience_years": map[string]interface{}{"$gte": float64(3), "$lte": float64(5)},
	}
	assert.Equal(t, want, got)
}

func TestCompileFilterLocation(t *testing.T) {
	got := CompileFilter(FilterSpec{Location: "new york"})
	want := map[string]interface{}{
		"location": map[string]interface{}{"$eq": "new york"},
	}
	assert.Equal(t, want, got)
}

func TestCompileFilterEmpty(t *testing.T) {
	assert.Nil(t, CompileFilter(FilterSpec{}))
	assert.Nil(t, CompileFilter(FilterSpec{MustHaveAll: []string{"", "  "}}))
}
