package tasks

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/filevault/pkg/logger"
	"github.com/dmitrymomot/filevault/pkg/retention"
	"github.com/dmitrymomot/filevault/pkg/tiering"
	"github.com/dmitrymomot/filevault/pkg/version"
)

// TieringSweep moves old versions of every tenant to a cheaper class.
// Tenants whose tier does not allow the target class are skipped.
type TieringSweep struct {
	manager   *version.Manager
	optimizer *tiering.Optimizer
	policies  *retention.Policies
	logger    *slog.Logger
	opts      tiering.Options
	schedule  string
}

// NewTieringSweep creates the periodic tiering task. An empty schedule
// disables it.
func NewTieringSweep(manager *version.Manager, optimizer *tiering.Optimizer, policies *retention.Policies, opts tiering.Options, schedule string, log *slog.Logger) *TieringSweep {
	return &TieringSweep{
		manager:   manager,
		optimizer: optimizer,
		policies:  policies,
		opts:      opts,
		schedule:  schedule,
		logger:    orNope(log),
	}
}

func (t *TieringSweep) Name() string     { return NameTieringSweep }
func (t *TieringSweep) Schedule() string { return t.schedule }

func (t *TieringSweep) Handle(ctx context.Context) error {
	reports, err := t.Run(ctx)
	if len(reports) == 0 && err != nil {
		return err
	}
	return nil
}

// Run optimizes every eligible tenant and returns their reports. Errors of
// single tenants are joined.
func (t *TieringSweep) Run(ctx context.Context) ([]*tiering.TenantReport, error) {
	tenants, err := t.manager.Store().Tenants(ctx)
	if err != nil {
		return nil, err
	}

	var (
		reports   []*tiering.TenantReport
		errs      []error
		optimized int
		savings   float64
	)
	for _, tenant := range tenants {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		tctx := logger.WithTenant(ctx, tenant)
		if !t.allowed(tenant) {
			t.logger.DebugContext(tctx, "tier does not allow target class, skipping",
				slog.String("target", string(t.opts.TargetClass)),
			)
			continue
		}

		r, err := t.optimizer.OptimizeTenant(tctx, tenant, t.opts)
		if err != nil {
			t.logger.ErrorContext(tctx, "tiering failed", slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		reports = append(reports, r)
		optimized += r.OptimizedCount
		savings += r.TotalSavings
	}

	t.logger.InfoContext(ctx, "tiering sweep finished",
		slog.Int("tenants", len(reports)),
		slog.Int("optimized", optimized),
		slog.Float64("monthly_savings", savings),
	)
	return reports, errors.Join(errs...)
}

func (t *TieringSweep) allowed(tenant string) bool {
	if t.policies == nil {
		return true
	}
	p, err := t.policies.Policy(t.policies.Resolve(tenant))
	if err != nil {
		return false
	}
	return p.Allows(t.opts.TargetClass)
}

// OptimizeFile runs the tiering optimizer for a single file on demand.
type OptimizeFile struct {
	optimizer *tiering.Optimizer
	opts      tiering.Options
}

func NewOptimizeFile(optimizer *tiering.Optimizer, opts tiering.Options) *OptimizeFile {
	return &OptimizeFile{optimizer: optimizer, opts: opts}
}

func (t *OptimizeFile) Name() string { return NameOptimizeFile }

func (t *OptimizeFile) Handle(ctx context.Context, p FilePayload) error {
	if err := p.validate(); err != nil {
		return err
	}
	ctx = logger.WithFile(logger.WithTenant(ctx, p.Tenant), p.FileID)
	_, err := t.optimizer.Optimize(ctx, p.Tenant, p.FileID, t.opts)
	if errors.Is(err, version.ErrFileNotFound) {
		// The file may have been removed after the job was queued.
		return nil
	}
	return err
}
