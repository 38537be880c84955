package version

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/filevault/pkg/billing"
	"github.com/dmitrymomot/filevault/pkg/logger"
)

// Option configures a Manager.
type Option func(*options)

type options struct {
	ledger billing.Ledger
	logger *slog.Logger
	now    func() time.Time
}

func defaultOptions() *options {
	return &options{
		ledger: billing.Nop{},
		logger: logger.NewNope(),
		now:    time.Now,
	}
}

// WithLedger sets the billing ledger notified about uploads, restores,
// deletions and storage class changes.
// Default: billing.Nop.
func WithLedger(l billing.Ledger) Option {
	return func(o *options) {
		if l != nil {
			o.ledger = l
		}
	}
}

// WithLogger sets the logger used for ledger failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the time source. Useful in tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
