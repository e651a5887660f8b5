package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func moduleNames(expr string) []string {
	var names []string
	for _, m := range SelectModules(expr) {
		names = append(names, m.Name)
	}
	return names
}

func TestSelectModulesAll(t *testing.T) {
	all := []string{"name", "designation", "role", "email", "mobile", "experience", "domain", "education", "skills"}
	assert.Equal(t, all, moduleNames(""))
	assert.Equal(t, all, moduleNames("all"))
	assert.Equal(t, all, moduleNames("0"))
}

func TestSelectModulesByName(t *testing.T) {
	assert.Equal(t, []string{"email", "mobile"}, moduleNames("email,mobile"))
	assert.Equal(t, []string{"skills"}, moduleNames(" Skills "))
}

func TestSelectModulesByIndex(t *testing.T) {
	assert.Equal(t, []string{"name", "experience"}, moduleNames("1,6"))
}

func TestSelectModulesMixed(t *testing.T) {
	assert.Equal(t, []string{"email", "skills"}, moduleNames("email,9"))
}

func TestSelectModulesUnknownSkipped(t *testing.T) {
	assert.Equal(t, []string{"email"}, moduleNames("email,bogus,42"))
	assert.Empty(t, moduleNames("bogus"))
}

func TestSelectModulesDeduplicates(t *testing.T) {
	assert.Equal(t, []string{"email"}, moduleNames("email,4,email"))
}

func TestAllowedExtension(t *testing.T) {
	for _, name := range []string{"a.pdf", "b.DOCX", "c.doc", "d.txt", "e.jpg", "f.jpeg", "g.png", "h.html", "i.htm"} {
		assert.True(t, AllowedExtension(name), name)
	}
	for _, name := range []string{"a.exe", "b.csv", "noext", "c.pdf.zip"} {
		assert.False(t, AllowedExtension(name), name)
	}
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "resume_42_chunk_0", ChunkID(42, 0))
	assert.Equal(t, "resume_7_chunk_13", ChunkID(7, 13))
}
