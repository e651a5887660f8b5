package fields

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectEmails(t *testing.T) {
	text := `John Smith
Email: john.smith@example.com
Reach me at <j.smith@gmail.com> or mailto:smith.alt@yahoo.com
Footer contact: footer@example.org`

	found := collectEmails(text)
	assert.Contains(t, found, "john.smith@example.com")
	assert.Contains(t, found, "j.smith@gmail.com")
	assert.Contains(t, found, "smith.alt@yahoo.com")
	assert.Contains(t, found, "footer@example.org")
}

func TestCollectEmailsDeduplicates(t *testing.T) {
	text := "john@example.com JOHN@EXAMPLE.COM mailto:john@example.com"
	found := collectEmails(text)
	assert.Equal(t, []string{"john@example.com"}, found)
}

func TestIsProxyEmail(t *testing.T) {
	assert.True(t, isProxyEmail("abc123@naukri.com"))
	assert.True(t, isProxyEmail("reply@mail.naukri.com"))
	assert.True(t, isProxyEmail("x@relay.jobs"))
	assert.False(t, isProxyEmail("john@gmail.com"))
	assert.False(t, isProxyEmail("john@naukri.com.example.net"))
	assert.False(t, isProxyEmail("not-an-email"))
}

func TestExciseForwardingLines(t *testing.T) {
	text := strings.Join([]string{
		"From: recruiter@agency.com",
		"To: hiring@company.com",
		"Subject line stays because subject is not a header we strip",
		"Name: John Smith",
		"john@gmail.com",
	}, "\n")

	got := exciseForwardingLines(text)
	assert.NotContains(t, got, "recruiter@agency.com")
	assert.NotContains(t, got, "hiring@company.com")
	assert.Contains(t, got, "john@gmail.com")
	assert.Contains(t, got, "Name: John Smith")
}

func TestAppendUnique(t *testing.T) {
	list := appendUnique(nil, " John@Example.com ")
	list = appendUnique(list, "john@example.com")
	list = appendUnique(list, "")
	list = appendUnique(list, "other@example.com")
	assert.Equal(t, []string{"john@example.com", "other@example.com"}, list)
}

func TestTruncateAtComma(t *testing.T) {
	assert.Equal(t, "short", truncateAtComma("short", 255))

	joined := "aaaa@example.com,bbbb@example.com,cccc@example.com"
	got := truncateAtComma(joined, 40)
	assert.LessOrEqual(t, len(got), 40)
	assert.False(t, strings.HasSuffix(got, ","))
	for _, e := range strings.Split(got, ",") {
		assert.Contains(t, e, "@")
	}
}
