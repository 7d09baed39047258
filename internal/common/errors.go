package common

import (
	"errors"
	"fmt"
)

// Domain errors - use errors.Is() to check
var (
	// Generic errors
	ErrInternal = errors.New("internal error")
	ErrNotFound = errors.New("not found")

	// Intake errors
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyInput        = errors.New("file is empty")
	ErrSizeLimitExceeded = errors.New("file exceeds size limit")

	// Pipeline stage errors
	ErrExtractionFailed = errors.New("content extraction failed")
	ErrGenerationFailed = errors.New("document generation failed")

	// Remote storage errors
	ErrAuthRequired      = errors.New("storage authentication required")
	ErrUploadFailed      = errors.New("upload failed")
	ErrQuotaOrPermission = errors.New("insufficient permissions or quota")

	// Deadline errors
	ErrTimeout = errors.New("operation timed out")

	// Section template store errors
	ErrVersionConflict = errors.New("template version conflict")

	// Resource-specific errors
	ErrJobNotFound      = fmt.Errorf("job %w", ErrNotFound)
	ErrTemplateNotFound = fmt.Errorf("base template %w", ErrNotFound)
)

// WrapStage wraps an underlying error into one of the pipeline stage
// sentinels so handlers can map it to a user-facing message.
func WrapStage(stage error, err error) error {
	if err == nil {
		return stage
	}
	return fmt.Errorf("%w: %w", stage, err)
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// UserMessage translates a pipeline error into the message surfaced to the
// caller. Every taxonomy entry gets its own wording; nothing is swallowed.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return "Unsupported file type. Supported formats: pdf, docx, txt, wav, m4a, mp3, webm."
	case errors.Is(err, ErrEmptyInput):
		return "File is empty."
	case errors.Is(err, ErrSizeLimitExceeded):
		return "File exceeds the maximum upload size."
	case errors.Is(err, ErrExtractionFailed):
		return "Could not extract content from file."
	case errors.Is(err, ErrGenerationFailed):
		return "Could not generate the RFP summary."
	case errors.Is(err, ErrAuthRequired):
		return "Drive upload requires authentication. Please log in and retry with your drive credentials."
	case errors.Is(err, ErrQuotaOrPermission):
		return "The storage backend rejected the request: insufficient permissions or quota."
	case errors.Is(err, ErrUploadFailed):
		return "Could not upload the generated document to the drive."
	case errors.Is(err, ErrTimeout):
		return "The operation timed out. Please try again."
	case errors.Is(err, ErrNotFound):
		return "Not found."
	default:
		return "Internal error."
	}
}
