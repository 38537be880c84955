package tiering

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/filevault/pkg/logger"
	"github.com/dmitrymomot/filevault/pkg/pricing"
	"github.com/dmitrymomot/filevault/pkg/version"
)

// Transitioner re-tiers a stored object.
type Transitioner interface {
	SetStorageClass(ctx context.Context, key string, class pricing.StorageClass) error
}

// Item describes one relabelled version.
type Item struct {
	VersionID     string               `json:"version_id"`
	BlobKey       string               `json:"blob_key"`
	From          pricing.StorageClass `json:"from"`
	To            pricing.StorageClass `json:"to"`
	FileSize      int64                `json:"file_size"`
	VersionNumber int                  `json:"version_number"`
	Savings       float64              `json:"savings"`
}

// Failure describes a version or file that could not be optimized.
type Failure struct {
	Err       error  `json:"-"`
	FileID    string `json:"file_id"`
	VersionID string `json:"version_id,omitempty"`
	Error     string `json:"error"`
}

// Report aggregates one Optimize call.
type Report struct {
	FileID         string    `json:"file_id"`
	Items          []Item    `json:"items"`
	Failures       []Failure `json:"failures,omitempty"`
	OptimizedCount int       `json:"optimized_count"`
	TotalSavings   float64   `json:"total_savings"`
}

// TenantReport aggregates OptimizeTenant.
type TenantReport struct {
	Tenant         string    `json:"tenant"`
	Files          []*Report `json:"files"`
	Failures       []Failure `json:"failures,omitempty"`
	OptimizedCount int       `json:"optimized_count"`
	TotalSavings   float64   `json:"total_savings"`
}

// Optimizer relabels old versions to cheaper storage classes.
type Optimizer struct {
	manager      *version.Manager
	transitioner Transitioner
	logger       *slog.Logger
	now          func() time.Time
	timeout      time.Duration
	concurrency  int
}

// NewOptimizer creates an optimizer.
func NewOptimizer(manager *version.Manager, opts ...Option) *Optimizer {
	o := defaultOptimizerOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Optimizer{
		manager:      manager,
		transitioner: o.transitioner,
		logger:       o.logger,
		now:          o.now,
		timeout:      o.timeout,
		concurrency:  o.concurrency,
	}
}

// Optimize moves the eligible versions of one file to opts.TargetClass.
// Transition failures are collected in the report.
func (o *Optimizer) Optimize(ctx context.Context, tenant, fileID string, opts Options) (*Report, error) {
	if !opts.TargetClass.Valid() {
		return nil, fmt.Errorf("%w: %q", pricing.ErrInvalidStorageClass, opts.TargetClass)
	}
	ctx = logger.WithFile(logger.WithTenant(ctx, tenant), fileID)

	f, err := o.manager.File(ctx, tenant, fileID)
	if err != nil {
		return nil, err
	}
	if f.Shape() == version.ShapeUnversioned {
		if f, err = o.manager.UpgradeLegacy(ctx, tenant, fileID); err != nil {
			return nil, err
		}
	}

	report := &Report{FileID: fileID, Items: []Item{}}
	now := o.now()

	var fn version.RetierFunc
	if o.transitioner == nil {
		fn = func(_ *version.File, v version.Version) (pricing.StorageClass, bool) {
			return opts.TargetClass, eligible(v, opts, now)
		}
	} else {
		moved := o.transition(ctx, f, opts, now, report)
		if len(moved) == 0 {
			return report, nil
		}
		// The bytes already moved, so the label follows even if the version
		// became active in the meantime.
		fn = func(_ *version.File, v version.Version) (pricing.StorageClass, bool) {
			_, ok := moved[v.VersionID]
			return opts.TargetClass, ok
		}
	}

	updated, changes, err := o.manager.Retier(ctx, tenant, fileID, fn)
	if err != nil {
		return nil, err
	}

	for _, c := range changes {
		v, _ := updated.Version(c.VersionID)
		item := Item{
			VersionID:     c.VersionID,
			VersionNumber: c.VersionNumber,
			BlobKey:       v.BlobKey,
			FileSize:      c.FileSize,
			From:          c.From,
			To:            c.To,
			Savings:       savings(c.From, c.To, c.FileSize),
		}
		report.Items = append(report.Items, item)
		report.OptimizedCount++
		report.TotalSavings += item.Savings
	}

	if report.OptimizedCount > 0 {
		o.logger.InfoContext(ctx, "storage classes optimized",
			slog.String("target_class", string(opts.TargetClass)),
			slog.Int("optimized", report.OptimizedCount),
			slog.Float64("monthly_savings", report.TotalSavings),
		)
	}
	return report, nil
}

// OptimizeTenant runs Optimize for every file of the tenant. Per-file errors
// are collected; only a failed listing or an invalid target is returned.
func (o *Optimizer) OptimizeTenant(ctx context.Context, tenant string, opts Options) (*TenantReport, error) {
	if !opts.TargetClass.Valid() {
		return nil, fmt.Errorf("%w: %q", pricing.ErrInvalidStorageClass, opts.TargetClass)
	}
	files, err := o.manager.Files(ctx, tenant)
	if err != nil {
		return nil, err
	}

	out := &TenantReport{Tenant: tenant, Files: []*Report{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for _, f := range files {
		g.Go(func() error {
			r, err := o.Optimize(gctx, tenant, f.ID, opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Failures = append(out.Failures, newFailure(f.ID, "", err))
				return nil
			}
			out.Failures = append(out.Failures, r.Failures...)
			if r.OptimizedCount > 0 {
				out.Files = append(out.Files, r)
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(out.Files, func(a, b *Report) int { return cmp.Compare(a.FileID, b.FileID) })
	for _, r := range out.Files {
		out.OptimizedCount += r.OptimizedCount
		out.TotalSavings += r.TotalSavings
	}
	return out, nil
}

// transition asks the blob store to move every eligible version and returns
// the IDs of those that moved.
func (o *Optimizer) transition(ctx context.Context, f *version.File, opts Options, now time.Time, report *Report) map[string]struct{} {
	moved := make(map[string]struct{})
	for _, v := range f.Versions {
		if !eligible(v, opts, now) {
			continue
		}
		tctx, cancel := context.WithTimeout(ctx, o.timeout)
		err := o.transitioner.SetStorageClass(tctx, v.BlobKey, opts.TargetClass)
		cancel()
		if err != nil {
			o.logger.WarnContext(ctx, "storage class transition failed",
				slog.String("version_id", v.VersionID),
				slog.String("blob_key", v.BlobKey),
				slog.Any("error", err),
			)
			report.Failures = append(report.Failures, newFailure(f.ID, v.VersionID, err))
			continue
		}
		moved[v.VersionID] = struct{}{}
	}
	return moved
}

func eligible(v version.Version, opts Options, now time.Time) bool {
	if v.StorageClass == opts.TargetClass {
		return false
	}
	if v.IsActive && !opts.IncludeActive {
		return false
	}
	return now.Sub(v.UploadDate) > time.Duration(opts.DaysThreshold)*24*time.Hour
}

func savings(from, to pricing.StorageClass, size int64) float64 {
	s, err := pricing.Savings(from, to, size)
	if err != nil {
		return 0
	}
	return s
}

func newFailure(fileID, versionID string, err error) Failure {
	return Failure{FileID: fileID, VersionID: versionID, Err: err, Error: err.Error()}
}
