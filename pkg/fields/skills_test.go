package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSkill(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"react.js", "react"},
		{"ReactJS", "react"},
		{"AngularJS", "angular"},
		{"Java 8", "java"},
		{"golang", "go"},
		{"k8s", "kubernetes"},
		{"postgres", "postgresql"},
		{"  Python  ", "python"},
		{"spring   boot", "spring boot"},
		{"made-up-skill", "made-up-skill"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSkill(tt.in))
		})
	}
}

func TestNormalizeSkillList(t *testing.T) {
	got := NormalizeSkillList([]string{"React.js", "reactjs", "Python", "", "python", "K8s"})
	assert.Equal(t, []string{"react", "python", "kubernetes"}, got)
}

func TestSplitSkillSet(t *testing.T) {
	assert.Equal(t, []string{"python", "django", "aws"}, SplitSkillSet("python, django , aws"))
	assert.Equal(t, []string{"python"}, SplitSkillSet("python,,"))
	assert.Nil(t, SplitSkillSet("  "))
	assert.Nil(t, SplitSkillSet(""))
}

func TestSkillRoundTrip(t *testing.T) {
	// A stored skillset survives split + normalize unchanged.
	stored := "python, react, kubernetes"
	assert.Equal(t, []string{"python", "react", "kubernetes"},
		NormalizeSkillList(SplitSkillSet(stored)))
}
