package job

import "errors"

var (
	ErrUnknownTask       = errors.New("job: unknown task")
	ErrInvalidPayload    = errors.New("job: invalid payload")
	ErrInvalidSchedule   = errors.New("job: invalid cron schedule")
	ErrAlreadyStarted    = errors.New("job: already started")
	ErrNotStarted        = errors.New("job: not started")
	ErrPoolRequired      = errors.New("job: pool is required")
	ErrEnqueueFailed     = errors.New("job: failed to enqueue")
	ErrMigrationFailed   = errors.New("job: queue migration failed")
	ErrHealthcheckFailed = errors.New("job: healthcheck failed")
)
