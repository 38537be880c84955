package retention

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/filevault/pkg/logger"
	"github.com/dmitrymomot/filevault/pkg/pricing"
	"github.com/dmitrymomot/filevault/pkg/version"
)

// BlobDeleter releases stored content. Deleting a missing key is not an error.
type BlobDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Item describes one deleted version.
type Item struct {
	FileID        string               `json:"file_id"`
	VersionID     string               `json:"version_id"`
	BlobKey       string               `json:"blob_key"`
	StorageClass  pricing.StorageClass `json:"storage_class"`
	Reason        Reason               `json:"reason"`
	BlobError     string               `json:"blob_error,omitempty"`
	FileSize      int64                `json:"file_size"`
	VersionNumber int                  `json:"version_number"`
	MonthlyCost   float64              `json:"monthly_cost"`
}

// Failure describes a version that could not be deleted.
type Failure struct {
	Err       error  `json:"-"`
	FileID    string `json:"file_id"`
	VersionID string `json:"version_id,omitempty"`
	Error     string `json:"error"`
}

// Report aggregates one cleanup run.
type Report struct {
	Tenant       string    `json:"tenant"`
	Tier         Tier      `json:"tier"`
	Items        []Item    `json:"items"`
	Failures     []Failure `json:"failures,omitempty"`
	CleanedCount int       `json:"cleaned_count"`
	FreedBytes   int64     `json:"freed_bytes"`
	SavedCost    float64   `json:"saved_cost"`
}

// Engine applies retention policies through the version manager.
type Engine struct {
	manager     *version.Manager
	policies    *Policies
	blobs       BlobDeleter
	logger      *slog.Logger
	now         func() time.Time
	blobTimeout time.Duration
	concurrency int
}

// NewEngine creates a retention engine.
func NewEngine(manager *version.Manager, policies *Policies, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Engine{
		manager:     manager,
		policies:    policies,
		blobs:       o.blobs,
		logger:      o.logger,
		now:         o.now,
		blobTimeout: o.blobTimeout,
		concurrency: o.concurrency,
	}
}

// Policies returns the engine's policy set.
func (e *Engine) Policies() *Policies {
	return e.policies
}

// CleanupTenant runs Cleanup with the tenant's resolved tier.
func (e *Engine) CleanupTenant(ctx context.Context, tenant string) (*Report, error) {
	return e.Cleanup(ctx, tenant, e.policies.Resolve(tenant))
}

// Cleanup removes the versions the tier's policy selects from every file of
// the tenant. Per-version failures are collected in the report; only an
// unknown tier or a failed listing is returned as an error.
func (e *Engine) Cleanup(ctx context.Context, tenant string, tier Tier) (*Report, error) {
	policy, err := e.policies.Policy(tier)
	if err != nil {
		return nil, err
	}
	files, err := e.manager.Files(ctx, tenant)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithTenant(ctx, tenant)
	now := e.now()
	report := &Report{Tenant: tenant, Tier: tier, Items: []Item{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, f := range files {
		candidates := Plan(f, policy, now)
		if len(candidates) == 0 {
			continue
		}
		g.Go(func() error {
			items, failures := e.cleanFile(gctx, tenant, f.ID, candidates)
			mu.Lock()
			report.Items = append(report.Items, items...)
			report.Failures = append(report.Failures, failures...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(report.Items, func(a, b Item) int {
		if c := cmp.Compare(a.FileID, b.FileID); c != 0 {
			return c
		}
		return cmp.Compare(a.VersionNumber, b.VersionNumber)
	})
	for _, it := range report.Items {
		report.CleanedCount++
		report.FreedBytes += it.FileSize
		report.SavedCost += it.MonthlyCost
	}

	e.logger.InfoContext(ctx, "retention cleanup finished",
		slog.String("tier", string(tier)),
		slog.Int("cleaned", report.CleanedCount),
		slog.Int64("freed_bytes", report.FreedBytes),
		slog.Int("failures", len(report.Failures)),
	)
	return report, nil
}

// Sweep runs CleanupTenant for every tenant owning files. Errors of single
// tenants are joined; reports of the others are still returned.
func (e *Engine) Sweep(ctx context.Context) ([]*Report, error) {
	tenants, err := e.manager.Store().Tenants(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]*Report, 0, len(tenants))
	var errs []error
	for _, tenant := range tenants {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		r, err := e.CleanupTenant(ctx, tenant)
		if err != nil {
			e.logger.ErrorContext(ctx, "retention cleanup failed",
				slog.String("tenant", tenant),
				slog.Any("error", err),
			)
			errs = append(errs, err)
			continue
		}
		reports = append(reports, r)
	}
	return reports, errors.Join(errs...)
}

func (e *Engine) cleanFile(ctx context.Context, tenant, fileID string, candidates []Candidate) ([]Item, []Failure) {
	ctx = logger.WithFile(ctx, fileID)
	var (
		items    []Item
		failures []Failure
	)
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			failures = append(failures, newFailure(fileID, c.Version.VersionID, err))
			continue
		}

		_, removed, err := e.manager.DeleteVersion(ctx, tenant, fileID, c.Version.VersionID)
		if err != nil {
			e.logger.WarnContext(ctx, "failed to delete version",
				slog.String("version_id", c.Version.VersionID),
				slog.Any("error", err),
			)
			failures = append(failures, newFailure(fileID, c.Version.VersionID, err))
			continue
		}

		cost, _ := pricing.MonthlyCost(removed.StorageClass, removed.FileSize)
		item := Item{
			FileID:        fileID,
			VersionID:     removed.VersionID,
			VersionNumber: removed.VersionNumber,
			BlobKey:       removed.BlobKey,
			FileSize:      removed.FileSize,
			StorageClass:  removed.StorageClass,
			Reason:        c.Reason,
			MonthlyCost:   cost,
		}
		if err := e.releaseBlob(ctx, removed.BlobKey); err != nil {
			e.logger.WarnContext(ctx, "failed to release blob",
				slog.String("blob_key", removed.BlobKey),
				slog.Any("error", err),
			)
			item.BlobError = err.Error()
		}
		items = append(items, item)
	}
	return items, failures
}

func (e *Engine) releaseBlob(ctx context.Context, key string) error {
	if e.blobs == nil || key == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.blobTimeout)
	defer cancel()
	return e.blobs.Delete(ctx, key)
}

func newFailure(fileID, versionID string, err error) Failure {
	return Failure{FileID: fileID, VersionID: versionID, Err: err, Error: err.Error()}
}
