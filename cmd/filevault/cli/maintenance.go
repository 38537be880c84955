package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/filevault/internal/app"
	"github.com/dmitrymomot/filevault/internal/tasks"
	"github.com/dmitrymomot/filevault/pkg/health"
	"github.com/dmitrymomot/filevault/pkg/job"
	"github.com/dmitrymomot/filevault/pkg/pricing"
	"github.com/dmitrymomot/filevault/pkg/retention"
)

var errTenantOrAll = errors.New("cli: pass a tenant or --all")

const asyncDedupWindow = 10 * time.Minute

func NewCleanupCommand() *cobra.Command {
	var (
		all   bool
		async bool
		tier  string
	)

	cmd := &cobra.Command{
		Use:   "cleanup [tenant]",
		Short: "Apply retention policies",
		Long:  "Delete versions a tenant's retention policy no longer allows, for one tenant or all of them.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) != all {
				return errTenantOrAll
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if all {
					if async {
						return enqueue(ctx, cmd, a, tasks.NameRetentionSweep, struct{}{})
					}
					reports, err := a.Retention.Sweep(ctx)
					if perr := printJSON(cmd, reports); perr != nil {
						return perr
					}
					return err
				}

				tenant := args[0]
				if async {
					return enqueue(ctx, cmd, a, tasks.NameCleanupTenant, tasks.TenantPayload{Tenant: tenant}, job.UniqueKey(tenant))
				}

				var (
					report *retention.Report
					err    error
				)
				if tier != "" {
					report, err = a.Retention.Cleanup(ctx, tenant, retention.Tier(tier))
				} else {
					report, err = a.Retention.CleanupTenant(ctx, tenant)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd, report)
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clean up every tenant")
	cmd.Flags().BoolVar(&async, "async", false, "Enqueue a job instead of running inline")
	cmd.Flags().StringVar(&tier, "tier", "", "Override the tenant's tier")

	return cmd
}

func NewOptimizeCommand() *cobra.Command {
	var (
		all           bool
		async         bool
		target        string
		days          int
		includeActive bool
	)

	cmd := &cobra.Command{
		Use:   "optimize [tenant] [file-id]",
		Short: "Move old versions to a colder storage class",
		Long:  "Relabel, and transition in the blob store when configured, versions older than a threshold to a cheaper storage class.",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) != all {
				return errTenantOrAll
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				opts := a.Config.Tiering.Options()
				if cmd.Flags().Changed("target") {
					class, err := pricing.ParseStorageClass(target)
					if err != nil {
						return err
					}
					opts.TargetClass = class
				}
				if cmd.Flags().Changed("days") {
					opts.DaysThreshold = days
				}
				if cmd.Flags().Changed("include-active") {
					opts.IncludeActive = includeActive
				}

				switch len(args) {
				case 0:
					if async {
						return enqueue(ctx, cmd, a, tasks.NameTieringSweep, struct{}{})
					}
					reports, err := tasks.NewTieringSweep(a.Versions, a.Optimizer, a.Policies, opts, "", a.Logger).Run(ctx)
					if perr := printJSON(cmd, reports); perr != nil {
						return perr
					}
					return err
				case 1:
					report, err := a.Optimizer.OptimizeTenant(ctx, args[0], opts)
					if err != nil {
						return err
					}
					return printJSON(cmd, report)
				default:
					if async {
						p := tasks.FilePayload{Tenant: args[0], FileID: args[1]}
						return enqueue(ctx, cmd, a, tasks.NameOptimizeFile, p, job.UniqueKey(args[0]+"/"+args[1]))
					}
					report, err := a.Optimizer.Optimize(ctx, args[0], args[1], opts)
					if err != nil {
						return err
					}
					return printJSON(cmd, report)
				}
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Optimize every tenant allowed to use the target class")
	cmd.Flags().BoolVar(&async, "async", false, "Enqueue a job instead of running inline (all tenants or one file)")
	cmd.Flags().StringVar(&target, "target", "", "Target storage class (default from TIERING_TARGET_CLASS)")
	cmd.Flags().IntVar(&days, "days", 0, "Minimum version age in days (default from TIERING_DAYS_THRESHOLD)")
	cmd.Flags().BoolVar(&includeActive, "include-active", false, "Also move active versions")

	return cmd
}

func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check connectivity of configured backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				resp := health.Run(ctx, a.Checks(),
					health.WithTimeout(a.Config.Ops.CheckTimeout),
					health.WithLogger(a.Logger),
				)
				if err := printJSON(cmd, resp); err != nil {
					return err
				}
				return resp.Err()
			})
		},
	}
}

func enqueue(ctx context.Context, cmd *cobra.Command, a *app.App, task string, payload any, opts ...job.EnqueueOption) error {
	enq, err := a.Enqueuer()
	if err != nil {
		return err
	}
	opts = append(opts, job.UniqueFor(asyncDedupWindow))
	if err := enq.Enqueue(ctx, task, payload, opts...); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s\n", task)
	return nil
}
