package tasks

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/filevault/pkg/logger"
	"github.com/dmitrymomot/filevault/pkg/retention"
)

// RetentionSweep applies every tenant's retention policy on a schedule.
type RetentionSweep struct {
	engine   *retention.Engine
	logger   *slog.Logger
	schedule string
}

// NewRetentionSweep creates the periodic retention task. An empty schedule
// disables it.
func NewRetentionSweep(engine *retention.Engine, schedule string, log *slog.Logger) *RetentionSweep {
	return &RetentionSweep{engine: engine, schedule: schedule, logger: orNope(log)}
}

func (t *RetentionSweep) Name() string     { return NameRetentionSweep }
func (t *RetentionSweep) Schedule() string { return t.schedule }

// Handle runs the sweep. Failures of single tenants are logged by the
// engine; the job fails only if the sweep itself could not run.
func (t *RetentionSweep) Handle(ctx context.Context) error {
	reports, err := t.engine.Sweep(ctx)

	var cleaned, failed int
	var freed int64
	var saved float64
	for _, r := range reports {
		cleaned += r.CleanedCount
		failed += len(r.Failures)
		freed += r.FreedBytes
		saved += r.SavedCost
	}
	t.logger.InfoContext(ctx, "retention sweep finished",
		slog.Int("tenants", len(reports)),
		slog.Int("cleaned", cleaned),
		slog.Int("failures", failed),
		slog.Int64("freed_bytes", freed),
		slog.Float64("monthly_savings", saved),
	)
	if len(reports) == 0 && err != nil {
		return err
	}
	return nil
}

// CleanupTenant applies the retention policy of one tenant on demand.
type CleanupTenant struct {
	engine *retention.Engine
}

func NewCleanupTenant(engine *retention.Engine) *CleanupTenant {
	return &CleanupTenant{engine: engine}
}

func (t *CleanupTenant) Name() string { return NameCleanupTenant }

func (t *CleanupTenant) Handle(ctx context.Context, p TenantPayload) error {
	if err := p.validate(); err != nil {
		return err
	}
	_, err := t.engine.CleanupTenant(logger.WithTenant(ctx, p.Tenant), p.Tenant)
	return err
}

func orNope(log *slog.Logger) *slog.Logger {
	if log == nil {
		return logger.NewNope()
	}
	return log
}
