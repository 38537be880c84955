package retention

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/filevault/pkg/logger"
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	blobs       BlobDeleter
	logger      *slog.Logger
	now         func() time.Time
	blobTimeout time.Duration
	concurrency int
}

func defaultOptions() *options {
	return &options{
		logger:      logger.NewNope(),
		now:         time.Now,
		blobTimeout: 30 * time.Second,
		concurrency: 8,
	}
}

// WithBlobDeleter sets the blob store used to release removed versions.
// Without one, only metadata is deleted.
func WithBlobDeleter(b BlobDeleter) Option {
	return func(o *options) {
		o.blobs = b
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithBlobTimeout bounds each blob delete call.
// Default: 30 seconds.
func WithBlobTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.blobTimeout = d
		}
	}
}

// WithConcurrency sets how many files are cleaned in parallel.
// Default: 8.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}
