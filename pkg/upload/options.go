package upload

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/filevault/pkg/logger"
	"github.com/dmitrymomot/filevault/pkg/pricing"
	"github.com/dmitrymomot/filevault/pkg/retention"
	"github.com/dmitrymomot/filevault/pkg/storage"
)

// Option configures a Service.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	recommender *pricing.Recommender
	policies    *retention.Policies
	prefix      string
	rules       []storage.ValidationRule
	cleanup     time.Duration
}

func defaultOptions() *options {
	return &options{
		logger:      logger.NewNope(),
		recommender: pricing.NewRecommender(pricing.DefaultRules()),
		prefix:      "versions",
		cleanup:     30 * time.Second,
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

// WithRecommender replaces the default storage class recommender.
func WithRecommender(r *pricing.Recommender) Option {
	return func(o *options) {
		if r != nil {
			o.recommender = r
		}
	}
}

// WithPolicies restricts recommended classes to those the tenant's tier allows.
func WithPolicies(p *retention.Policies) Option {
	return func(o *options) {
		o.policies = p
	}
}

// WithPrefix sets the key segment placed after the tenant.
// Default: "versions".
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithValidation adds rules checked before the blob is written.
func WithValidation(rules ...storage.ValidationRule) Option {
	return func(o *options) {
		o.rules = append(o.rules, rules...)
	}
}

// WithCleanupTimeout bounds blob deletion after a failed version write.
// Default: 30s.
func WithCleanupTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.cleanup = d
		}
	}
}
