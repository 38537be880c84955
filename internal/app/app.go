// Package app builds the services of a filevault process from its config.
package app

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/filevault/internal/config"
	"github.com/dmitrymomot/filevault/internal/migrations"
	"github.com/dmitrymomot/filevault/internal/tasks"
	"github.com/dmitrymomot/filevault/pkg/billing"
	"github.com/dmitrymomot/filevault/pkg/db"
	"github.com/dmitrymomot/filevault/pkg/health"
	"github.com/dmitrymomot/filevault/pkg/job"
	"github.com/dmitrymomot/filevault/pkg/pricing"
	"github.com/dmitrymomot/filevault/pkg/redis"
	"github.com/dmitrymomot/filevault/pkg/retention"
	"github.com/dmitrymomot/filevault/pkg/storage"
	"github.com/dmitrymomot/filevault/pkg/tiering"
	"github.com/dmitrymomot/filevault/pkg/upload"
	"github.com/dmitrymomot/filevault/pkg/version"
	"github.com/dmitrymomot/filevault/pkg/version/pgstore"
	"github.com/dmitrymomot/filevault/pkg/version/redisstore"
)

var (
	ErrInit           = errors.New("app: initialization failed")
	ErrNoBlobStore    = errors.New("app: blob store is not configured")
	ErrNoDatabase     = errors.New("app: database is not configured")
	ErrJobsNotCreated = errors.New("app: job manager could not be created")
)

// App holds the wired services. Optional backends are nil when not configured.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Pool  *pgxpool.Pool
	Redis goredis.UniversalClient
	Blobs *storage.S3Storage

	Store       version.Store
	Ledger      billing.Ledger
	Policies    *retention.Policies
	Recommender *pricing.Recommender

	Versions  *version.Manager
	Retention *retention.Engine
	Optimizer *tiering.Optimizer

	hooks []func(context.Context) error
}

// New connects the configured backends and builds the services. On error
// everything opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
		}
	}()

	if cfg.Store == config.StorePostgres || cfg.Ledger == config.LedgerPostgres {
		a.Pool, err = db.Connect(ctx, cfg.DB)
		if err != nil {
			return nil, errors.Join(ErrInit, err)
		}
		a.onClose(db.Shutdown(a.Pool))
	}

	switch cfg.Store {
	case config.StorePostgres:
		a.Store = pgstore.New(a.Pool)
	case config.StoreRedis:
		a.Redis, err = redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, errors.Join(ErrInit, err)
		}
		a.onClose(redis.Shutdown(a.Redis))
		a.Store = redisstore.New(a.Redis)
	default:
		a.Store = version.NewMemoryStore()
	}

	switch cfg.Ledger {
	case config.LedgerPostgres:
		a.Ledger = billing.NewPGLedger(a.Pool)
	case config.LedgerLog:
		a.Ledger = billing.NewLogLedger(log)
	default:
		a.Ledger = billing.Nop{}
	}

	if cfg.BlobStoreEnabled() {
		a.Blobs, err = storage.New(cfg.Storage)
		if err != nil {
			return nil, errors.Join(ErrInit, err)
		}
	}

	a.Policies = retention.DefaultPolicies()
	if cfg.Retention.PoliciesPath != "" {
		if a.Policies, err = retention.LoadPolicies(cfg.Retention.PoliciesPath); err != nil {
			return nil, errors.Join(ErrInit, err)
		}
	}

	rules := pricing.DefaultRules()
	if cfg.PricingRulesPath != "" {
		if rules, err = pricing.LoadRules(cfg.PricingRulesPath); err != nil {
			return nil, errors.Join(ErrInit, err)
		}
	}
	a.Recommender = pricing.NewRecommender(rules)

	a.Versions = version.NewManager(a.Store,
		version.WithLedger(a.Ledger),
		version.WithLogger(log),
	)

	retentionOpts := []retention.Option{
		retention.WithLogger(log),
		retention.WithConcurrency(cfg.Retention.Concurrency),
		retention.WithBlobTimeout(cfg.Retention.BlobTimeout),
	}
	tieringOpts := []tiering.Option{
		tiering.WithLogger(log),
		tiering.WithConcurrency(cfg.Tiering.Concurrency),
		tiering.WithTransitionTimeout(cfg.Tiering.TransitionTimeout),
	}
	if a.Blobs != nil {
		retentionOpts = append(retentionOpts, retention.WithBlobDeleter(a.Blobs))
		if cfg.Tiering.Transition {
			tieringOpts = append(tieringOpts, tiering.WithTransitioner(a.Blobs))
		}
	}
	a.Retention = retention.NewEngine(a.Versions, a.Policies, retentionOpts...)
	a.Optimizer = tiering.NewOptimizer(a.Versions, tieringOpts...)

	return a, nil
}

// Uploads returns the upload service. It needs the blob store.
func (a *App) Uploads() (*upload.Service, error) {
	if a.Blobs == nil {
		return nil, ErrNoBlobStore
	}
	return upload.NewService(a.Versions, a.Blobs,
		upload.WithLogger(a.Logger),
		upload.WithRecommender(a.Recommender),
		upload.WithPolicies(a.Policies),
	), nil
}

// TieringSweep returns the sweep over all tenants with configured options.
func (a *App) TieringSweep() *tasks.TieringSweep {
	return tasks.NewTieringSweep(a.Versions, a.Optimizer, a.Policies, a.Config.Tiering.Options(), a.Config.Tiering.Cron(), a.Logger)
}

// Jobs builds the job manager with every task registered. The manager is
// stopped on Close.
func (a *App) Jobs() (*job.Manager, error) {
	if a.Pool == nil {
		return nil, ErrNoDatabase
	}
	cfg := a.Config
	opts := []job.Option{
		job.WithLogger(a.Logger),
		job.WithMaxWorkers(cfg.Worker.MaxWorkers),
		job.WithJobTimeout(cfg.Worker.JobTimeout),
		job.WithTask(tasks.NewCleanupTenant(a.Retention)),
		job.WithTask(tasks.NewOptimizeFile(a.Optimizer, cfg.Tiering.Options())),
		job.WithScheduledTask(tasks.NewRetentionSweep(a.Retention, cfg.Retention.Cron(), a.Logger)),
		job.WithScheduledTask(a.TieringSweep()),
	}
	if cfg.Worker.RunOnStart {
		opts = append(opts, job.WithRunOnStart())
	}

	m, err := job.NewManager(a.Pool, opts...)
	if err != nil {
		return nil, errors.Join(ErrJobsNotCreated, err)
	}
	a.onClose(m.Shutdown())
	return m, nil
}

// Enqueuer returns an insert-only job client.
func (a *App) Enqueuer() (*job.Enqueuer, error) {
	if a.Pool == nil {
		return nil, ErrNoDatabase
	}
	return job.NewEnqueuer(a.Pool, a.Logger)
}

// Migrate applies the application schema and River's queue schema.
func (a *App) Migrate(ctx context.Context) error {
	if a.Pool == nil {
		return ErrNoDatabase
	}
	if err := db.Migrate(ctx, a.Pool, migrations.FS, a.Config.DB.MigrationsTable, a.Logger); err != nil {
		return err
	}
	versions, err := job.Migrate(ctx, a.Pool, a.Logger)
	if err != nil {
		return err
	}
	a.Logger.InfoContext(ctx, "queue schema migrated", slog.Any("versions", versions))
	return nil
}

// Checks returns the readiness checks of every connected backend.
func (a *App) Checks() health.Checks {
	checks := health.Checks{}
	if a.Pool != nil {
		checks["postgres"] = db.Healthcheck(a.Pool)
	}
	if a.Redis != nil {
		checks["redis"] = redis.Healthcheck(a.Redis)
	}
	return checks
}

// Close runs shutdown hooks in reverse registration order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, hook := range slices.Backward(a.hooks) {
		if err := hook(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "shutdown hook failed", slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	a.hooks = nil
	return errors.Join(errs...)
}

func (a *App) onClose(hook func(context.Context) error) {
	a.hooks = append(a.hooks, hook)
}
