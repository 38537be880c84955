package tiering

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/filevault/pkg/logger"
	"github.com/dmitrymomot/filevault/pkg/pricing"
)

// Options selects which versions Optimize moves and where.
type Options struct {
	TargetClass pricing.StorageClass `json:"target_class"`
	// DaysThreshold is the minimum age of a version, in days.
	DaysThreshold int `json:"days_threshold"`
	// IncludeActive also moves the active version.
	IncludeActive bool `json:"include_active"`
}

// DefaultOptions moves inactive versions older than 30 days to GLACIER_IR.
func DefaultOptions() Options {
	return Options{
		TargetClass:   pricing.ClassGlacierIR,
		DaysThreshold: 30,
	}
}

// Option configures an Optimizer.
type Option func(*optimizerOptions)

type optimizerOptions struct {
	transitioner Transitioner
	logger       *slog.Logger
	now          func() time.Time
	timeout      time.Duration
	concurrency  int
}

func defaultOptimizerOptions() *optimizerOptions {
	return &optimizerOptions{
		logger:      logger.NewNope(),
		now:         time.Now,
		timeout:     time.Minute,
		concurrency: 4,
	}
}

// WithTransitioner enables physical storage class transitions.
func WithTransitioner(t Transitioner) Option {
	return func(o *optimizerOptions) {
		o.transitioner = t
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *optimizerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *optimizerOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithTransitionTimeout bounds each transition call.
// Default: 1 minute.
func WithTransitionTimeout(d time.Duration) Option {
	return func(o *optimizerOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithConcurrency sets how many files OptimizeTenant processes in parallel.
// Default: 4.
func WithConcurrency(n int) Option {
	return func(o *optimizerOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}
