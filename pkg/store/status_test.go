package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		status string
		base   string
		reason string
	}{
		{"pending", "pending", ""},
		{"processing", "processing", ""},
		{"completed", "completed", ""},
		{"failed:insufficient_text", "failed", "insufficient_text"},
		{"failed:file_too_large", "failed", "file_too_large"},
		{"failed:", "failed", ""},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			base, reason := ParseStatus(tt.status)
			assert.Equal(t, tt.base, base)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestFailedStatus(t *testing.T) {
	assert.Equal(t, "failed:empty_file", FailedStatus(ReasonEmptyFile))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(FailedStatus(ReasonInsufficientText)))

	for _, status := range []string{
		StatusPending,
		StatusProcessing,
		StatusCompleted,
		FailedStatus(ReasonFileTooLarge),
		FailedStatus(ReasonInvalidFileType),
		FailedStatus(ReasonExtractionError),
		FailedStatus(ReasonUnknownError),
		"insufficient_text",
	} {
		assert.False(t, IsRetryable(status), status)
	}
}
