package storage

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Sentinel errors for storage operations.
var (
	ErrInvalidConfig = errors.New("storage: invalid configuration")
	ErrReadFailed    = errors.New("storage: failed to read payload")

	ErrNotFound         = errors.New("storage: object not found")
	ErrAccessDenied     = errors.New("storage: access denied")
	ErrArchived         = errors.New("storage: object is archived and must be restored first")
	ErrUploadFailed     = errors.New("storage: upload failed")
	ErrDeleteFailed     = errors.New("storage: delete failed")
	ErrTransitionFailed = errors.New("storage: storage class transition failed")
	ErrPresignFailed    = errors.New("storage: presign failed")
)

// wrapS3Error maps S3 errors onto the package sentinels. The original error
// is kept as text only, so callers match sentinels rather than AWS types.
func wrapS3Error(err error, fallback error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		case "InvalidObjectState":
			return fmt.Errorf("%w: %v", ErrArchived, err)
		}
	}

	var notFound *types.NoSuchKey
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var archived *types.InvalidObjectState
	if errors.As(err, &archived) {
		return fmt.Errorf("%w: %v", ErrArchived, err)
	}

	return fmt.Errorf("%w: %v", fallback, err)
}
