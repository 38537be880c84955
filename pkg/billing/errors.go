package billing

import "errors"

var (
	// ErrRecordFailed is returned when an activity cannot be persisted.
	ErrRecordFailed = errors.New("billing: failed to record activity")

	// ErrInvalidActivity is returned for an empty tenant or activity.
	ErrInvalidActivity = errors.New("billing: invalid activity")
)
