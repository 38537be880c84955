// Package config loads the process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/filevault/pkg/db"
	"github.com/dmitrymomot/filevault/pkg/logger"
	"github.com/dmitrymomot/filevault/pkg/pricing"
	"github.com/dmitrymomot/filevault/pkg/redis"
	"github.com/dmitrymomot/filevault/pkg/storage"
	"github.com/dmitrymomot/filevault/pkg/tiering"
)

// Version store backends.
const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

// Ledger backends.
const (
	LedgerPostgres = "postgres"
	LedgerLog      = "log"
	LedgerNone     = "none"
)

var (
	ErrParse   = errors.New("config: failed to parse environment")
	ErrInvalid = errors.New("config: invalid configuration")
)

// Config is the complete process configuration.
type Config struct {
	Log     logger.Config
	DB      db.Config
	Redis   redis.Config
	Storage storage.Config

	Retention Retention
	Tiering   Tiering
	Worker    Worker
	Ops       Ops

	// Store selects where file aggregates live.
	Store string `env:"VERSION_STORE" envDefault:"postgres"`
	// Ledger selects where billing activities go.
	Ledger string `env:"BILLING_LEDGER" envDefault:"postgres"`

	// PricingRulesPath points at a YAML file overriding recommendation rules.
	PricingRulesPath string `env:"PRICING_RULES_PATH"`

	// OperationTimeout bounds one CLI command.
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT" envDefault:"10m"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// ScheduleOff disables a periodic sweep. An empty variable falls back to the
// default schedule.
const ScheduleOff = "off"

func cronExpr(s string) string {
	if s == ScheduleOff {
		return ""
	}
	return s
}

// Retention configures the cleanup engine and its schedule.
type Retention struct {
	// PoliciesPath points at the YAML tier policies. Empty uses built-in tiers.
	PoliciesPath string        `env:"RETENTION_POLICIES_PATH"`
	Schedule     string        `env:"RETENTION_SCHEDULE" envDefault:"0 3 * * *"`
	Concurrency  int           `env:"RETENTION_CONCURRENCY" envDefault:"8"`
	BlobTimeout  time.Duration `env:"RETENTION_BLOB_TIMEOUT" envDefault:"30s"`
}

// Cron returns the sweep schedule, or "" when disabled.
func (r Retention) Cron() string { return cronExpr(r.Schedule) }

// Tiering configures the optimizer and its schedule.
type Tiering struct {
	Schedule      string               `env:"TIERING_SCHEDULE" envDefault:"30 4 * * *"`
	TargetClass   pricing.StorageClass `env:"TIERING_TARGET_CLASS" envDefault:"GLACIER_IR"`
	DaysThreshold int                  `env:"TIERING_DAYS_THRESHOLD" envDefault:"30"`
	IncludeActive bool                 `env:"TIERING_INCLUDE_ACTIVE" envDefault:"false"`
	// Transition moves bytes in the blob store; otherwise only labels change.
	Transition        bool          `env:"TIERING_TRANSITION" envDefault:"true"`
	Concurrency       int           `env:"TIERING_CONCURRENCY" envDefault:"4"`
	TransitionTimeout time.Duration `env:"TIERING_TRANSITION_TIMEOUT" envDefault:"1m"`
}

// Cron returns the sweep schedule, or "" when disabled.
func (t Tiering) Cron() string { return cronExpr(t.Schedule) }

// Options returns the optimizer options for one run.
func (t Tiering) Options() tiering.Options {
	return tiering.Options{
		TargetClass:   t.TargetClass,
		DaysThreshold: t.DaysThreshold,
		IncludeActive: t.IncludeActive,
	}
}

// Worker configures the background job runner.
type Worker struct {
	MaxWorkers int           `env:"WORKER_MAX_WORKERS" envDefault:"10"`
	JobTimeout time.Duration `env:"WORKER_JOB_TIMEOUT" envDefault:"30m"`
	RunOnStart bool          `env:"WORKER_RUN_ON_START" envDefault:"false"`
}

// Ops configures the health endpoint server.
type Ops struct {
	Addr         string        `env:"OPS_ADDR" envDefault:":8081"`
	CheckTimeout time.Duration `env:"OPS_CHECK_TIMEOUT" envDefault:"3s"`
}

// Load parses and validates the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, errors.Join(ErrParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints the env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store {
	case StorePostgres:
		if c.DB.ConnectionString == "" {
			errs = append(errs, errors.New("DATABASE_CONN_URL is required for the postgres store"))
		}
	case StoreRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown VERSION_STORE %q", c.Store))
	}

	switch c.Ledger {
	case LedgerPostgres:
		if c.DB.ConnectionString == "" {
			errs = append(errs, errors.New("DATABASE_CONN_URL is required for the postgres ledger"))
		}
	case LedgerLog, LedgerNone:
	default:
		errs = append(errs, fmt.Errorf("unknown BILLING_LEDGER %q", c.Ledger))
	}

	if !c.Tiering.TargetClass.Valid() {
		errs = append(errs, fmt.Errorf("TIERING_TARGET_CLASS: %w: %q", pricing.ErrInvalidStorageClass, c.Tiering.TargetClass))
	}
	if c.Tiering.DaysThreshold < 0 {
		errs = append(errs, errors.New("TIERING_DAYS_THRESHOLD must not be negative"))
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalid}, errs...)...)
}

// BlobStoreEnabled reports whether S3 credentials are configured.
func (c *Config) BlobStoreEnabled() bool {
	return c.Storage.Bucket != ""
}
