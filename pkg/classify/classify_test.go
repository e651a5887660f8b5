package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelSets(t *testing.T) {
	assert.Len(t, ITCategories, 22)
	assert.Len(t, NonITCategories, 30)

	// Labels within a set must be unique; namespaces derive from them.
	for _, labels := range [][]string{ITCategories, NonITCategories} {
		seen := map[string]bool{}
		for _, label := range labels {
			assert.False(t, seen[label], label)
			seen[label] = true
		}
	}
}

func TestCategoriesFor(t *testing.T) {
	assert.Equal(t, ITCategories, CategoriesFor(MasterIT))
	assert.Equal(t, NonITCategories, CategoriesFor(MasterNonIT))
	assert.Nil(t, CategoriesFor("SOMETHING_ELSE"))
	assert.Nil(t, CategoriesFor(""))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "IT", firstLine("IT"))
	assert.Equal(t, "IT", firstLine("\n\nIT\nextra"))
	assert.Equal(t, "IT", firstLine("```\nIT\n```"))
	assert.Equal(t, "Backend Development", firstLine(`"Backend Development"`))
	assert.Equal(t, "", firstLine("   \n  "))
}

func TestMatchLabel(t *testing.T) {
	label, ok := matchLabel("backend development", ITCategories)
	assert.True(t, ok)
	assert.Equal(t, "Backend Development", label)

	label, ok = matchLabel("The category is Manual Testing.", ITCategories)
	assert.True(t, ok)
	assert.Equal(t, "Manual Testing", label)

	_, ok = matchLabel("Astronaut", ITCategories)
	assert.False(t, ok)
}
