package store

import "strings"

// Resume lifecycle statuses. Failed statuses carry a reason suffix after a
// colon; only failed:insufficient_text may be retried.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"

	ReasonFileTooLarge       = "file_too_large"
	ReasonInvalidFileType    = "invalid_file_type"
	ReasonEmptyFile          = "empty_file"
	ReasonInsufficientText   = "insufficient_text"
	ReasonExtractionError    = "extraction_error"
	ReasonDesignationFailed  = "designation_extraction_failed"
	ReasonDatabaseError      = "database_error"
	ReasonUnknownError       = "unknown_error"
)

// FailedStatus builds a failed:<reason> status string.
func FailedStatus(reason string) string {
	return StatusFailed + ":" + reason
}

// ParseStatus splits a status into its base and optional reason.
func ParseStatus(status string) (base, reason string) {
	if idx := strings.IndexByte(status, ':'); idx >= 0 {
		return status[:idx], status[idx+1:]
	}
	return status, ""
}

// IsRetryable reports whether a status permits the OCR retry path.
func IsRetryable(status string) bool {
	base, reason := ParseStatus(status)
	return base == StatusFailed && reason == ReasonInsufficientText
}
