// Package tiering moves old file versions to cheaper storage classes.
//
// [Optimizer.Optimize] selects the versions of one file that are older than
// a threshold and not yet in the target class, relabels them through the
// version manager and reports the projected monthly savings. The active
// version is skipped unless Options.IncludeActive is set.
//
// When a [Transitioner] is configured, the blob store is asked to re-tier
// each selected object first, and only versions whose transition succeeded
// are relabelled. Without one, only the recorded storage class changes.
//
//	opt := tiering.NewOptimizer(manager, tiering.WithTransitioner(s3store))
//	report, err := opt.Optimize(ctx, tenantID, fileID, tiering.Options{
//		DaysThreshold: 30,
//		TargetClass:   pricing.ClassGlacierIR,
//	})
package tiering
