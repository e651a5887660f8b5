package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoleQAVariants(t *testing.T) {
	variants := []string{
		"QA Automation Engineer",
		"Senior QA Automation Engineer",
		"Test Automation Engineer",
		"SDET",
		"Software Development Engineer in Test",
		"automation tester",
		"Quality Assurance Engineer",
	}
	for _, v := range variants {
		role, ok := NormalizeRole(v)
		assert.True(t, ok, v)
		assert.Equal(t, "qa_automation_engineer", role, v)
	}
}

func TestNormalizeRoleSeniorityStripped(t *testing.T) {
	for _, v := range []string{"Java Developer", "Senior Java Developer", "Lead Java Developer", "Jr. Java Developer"} {
		role, ok := NormalizeRole(v)
		assert.True(t, ok, v)
		assert.Equal(t, "java_developer", role, v)
	}
}

func TestNormalizeRoleUnknown(t *testing.T) {
	_, ok := NormalizeRole("Underwater Basket Weaver")
	assert.False(t, ok)
	_, ok = NormalizeRole("")
	assert.False(t, ok)
}

func TestRoleFamilyNamespaces(t *testing.T) {
	ns := roleFamilyNamespaces("looking for a qa engineer with selenium")
	assert.Contains(t, ns, "qa_test_automation")

	ns = roleFamilyNamespaces("devops engineer with kubernetes")
	assert.Contains(t, ns, "devops_site_reliability")

	assert.Nil(t, roleFamilyNamespaces("accountant with tally"))
}

func TestContainsWord(t *testing.T) {
	assert.True(t, containsWord("senior qa engineer", "qa"))
	assert.False(t, containsWord("doha qatar", "qa"))
	assert.True(t, containsWord("qa", "qa"))
	assert.True(t, containsWord("full stack developer", "full stack"))
}

func TestNormalizeLocation(t *testing.T) {
	assert.Equal(t, "new york", NormalizeLocation("NYC"))
	assert.Equal(t, "bangalore", NormalizeLocation("Bengaluru"))
	assert.Equal(t, "pune", NormalizeLocation(" Pune "))
	assert.Equal(t, "", NormalizeLocation(""))
}
