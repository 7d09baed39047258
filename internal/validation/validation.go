package validation

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/lavrova/rfpdesk/internal/common"
	"github.com/lavrova/rfpdesk/internal/extract"
)

// ValidateUpload runs the cheap intake checks before any bytes are parsed:
// declared format, emptiness, and the configured size ceiling.
func ValidateUpload(filename string, size, maxBytes int64) error {
	if filename == "" {
		return common.WrapStage(common.ErrEmptyInput, fmt.Errorf("no file provided"))
	}
	if size == 0 {
		return common.ErrEmptyInput
	}
	if size > maxBytes {
		return common.WrapStage(common.ErrSizeLimitExceeded,
			fmt.Errorf("%d bytes, limit %d", size, maxBytes))
	}
	_, err := extract.Detect(filename)
	return err
}

// SniffContentType detects the actual content type from the payload. Used
// for logging and stored metadata; dispatch stays on the declared extension.
func SniffContentType(data []byte) string {
	return mimetype.Detect(data).String()
}
