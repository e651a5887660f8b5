package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultParse(t *testing.T) {
	parsed := defaultParse("python developer in pune")
	assert.Equal(t, TypeSemantic, parsed.SearchType)
	assert.Equal(t, "python developer in pune", parsed.TextForEmbedding)
	assert.False(t, parsed.HasHardFilters())
}

func TestHasHardFilters(t *testing.T) {
	q := &ParsedQuery{}
	assert.False(t, q.HasHardFilters())

	q.Filters.MustHaveAll = []string{"python"}
	assert.True(t, q.HasHardFilters())

	q = &ParsedQuery{Filters: Filters{MinExperience: floatPtr(5)}}
	assert.True(t, q.HasHardFilters())

	q = &ParsedQuery{Filters: Filters{Location: "pune"}}
	assert.True(t, q.HasHardFilters())

	// A designation alone does not narrow retrieval; it is scored
	// post-retrieval.
	q = &ParsedQuery{Filters: Filters{Designation: "qa engineer"}}
	assert.False(t, q.HasHardFilters())
}

func TestApplyOverrides(t *testing.T) {
	// Master alone pins the index without inventing a category.
	parsed := defaultParse("accountant with tally")
	applyOverrides(parsed, "NON_IT", "")
	assert.Equal(t, "NON_IT", parsed.MasterCategory)
	assert.Equal(t, "", parsed.Category)
	assert.Equal(t, TypeSemantic, parsed.SearchType)

	// Master plus category pins the namespace and downgrades a name parse.
	parsed = &ParsedQuery{
		SearchType: TypeName,
		Filters:    Filters{CandidateName: "John Smith"},
	}
	applyOverrides(parsed, "IT", "Backend Development")
	assert.Equal(t, "IT", parsed.MasterCategory)
	assert.Equal(t, "Backend Development", parsed.Category)
	assert.Equal(t, TypeSemantic, parsed.SearchType)
	assert.Equal(t, "", parsed.Filters.CandidateName)

	// No overrides leave the parse untouched.
	parsed = &ParsedQuery{SearchType: TypeName, Filters: Filters{CandidateName: "John Smith"}}
	applyOverrides(parsed, "", "")
	assert.Equal(t, TypeName, parsed.SearchType)
	assert.Equal(t, "John Smith", parsed.Filters.CandidateName)
	assert.Equal(t, "", parsed.MasterCategory)
}

func TestStringAt(t *testing.T) {
	obj := map[string]interface{}{
		"a": "value",
		"b": "  null  ",
		"c": nil,
		"d": 42.0,
	}
	assert.Equal(t, "value", stringAt(obj, "a"))
	assert.Equal(t, "", stringAt(obj, "b"))
	assert.Equal(t, "", stringAt(obj, "c"))
	assert.Equal(t, "", stringAt(obj, "d"))
	assert.Equal(t, "", stringAt(obj, "missing"))
}

func TestSliceAt(t *testing.T) {
	obj := map[string]interface{}{
		"list":   []interface{}{"python", " django ", "", "null"},
		"string": "java, spring , ",
	}
	assert.Equal(t, []string{"python", "django"}, sliceAt(obj, "list"))
	assert.Equal(t, []string{"java", "spring"}, sliceAt(obj, "string"))
	assert.Nil(t, sliceAt(obj, "missing"))
}

func TestGroupsAt(t *testing.T) {
	obj := map[string]interface{}{
		"groups": []interface{}{
			[]interface{}{"django", "flask"},
			"fastapi",
			[]interface{}{},
		},
	}
	got := groupsAt(obj, "groups")
	assert.Equal(t, [][]string{{"django", "flask"}, {"fastapi"}}, got)
}

func TestFloatAt(t *testing.T) {
	obj := map[string]interface{}{
		"num":      5.0,
		"str":      "3",
		"negative": -2.0,
		"junk":     "many",
	}
	assert.Equal(t, 5.0, *floatAt(obj, "num"))
	assert.Equal(t, 3.0, *floatAt(obj, "str"))
	assert.Nil(t, floatAt(obj, "negative"))
	assert.Nil(t, floatAt(obj, "junk"))
	assert.Nil(t, floatAt(obj, "missing"))
}
