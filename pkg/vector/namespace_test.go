package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamespace(t *testing.T) {
	tests := []struct {
		name     string
		category string
		want     string
	}{
		{"simple label", "Frontend Development", "frontend_development"},
		{"ampersand", "QA & Test Automation", "qa_test_automation"},
		{"parentheses", "Full Stack Development (Python)", "full_stack_development_python"},
		{"slash", "UI/UX Design", "ui_ux_design"},
		{"already normalized", "data_engineering", "data_engineering"},
		{"leading and trailing junk", "  --DevOps & Site Reliability--  ", "devops_site_reliability"},
		{"collapses runs", "A  &  B", "a_b"},
		{"digits preserved", "Java 8 Development", "java_8_development"},
		{"empty", "", UncategorizedNamespace},
		{"only symbols", "&&& ///", UncategorizedNamespace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Namespace(tt.category))
		})
	}
}

func TestNamespaceIdempotent(t *testing.T) {
	for _, category := range []string{"QA & Test Automation", "Sales & Business Development", ""} {
		once := Namespace(category)
		assert.Equal(t, once, Namespace(once))
	}
}

func TestPlaceholderIDs(t *testing.T) {
	id := PlaceholderID("qa_test_automation")
	assert.Equal(t, "_namespace_init_qa_test_automation", id)
	assert.True(t, IsPlaceholderID(id))
	assert.False(t, IsPlaceholderID("resume_42_chunk_0"))

	assert.True(t, IsPlaceholderNamespace("_namespace_init_uncategorized"))
	assert.False(t, IsPlaceholderNamespace("uncategorized"))
}
