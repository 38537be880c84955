package upload

import "errors"

var (
	ErrInvalidRequest = errors.New("upload: invalid request")
	ErrStoreBlob      = errors.New("upload: failed to store blob")
	ErrRecordVersion  = errors.New("upload: failed to record version")
	ErrNoBlob         = errors.New("upload: version has no blob")
)
