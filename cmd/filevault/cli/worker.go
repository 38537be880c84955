package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/filevault/internal/app"
	"github.com/dmitrymomot/filevault/internal/ops"
	"github.com/dmitrymomot/filevault/pkg/health"
	"github.com/dmitrymomot/filevault/pkg/job"
)

func NewWorkerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run background jobs and scheduled sweeps",
		Long:  "Start the job worker running retention and tiering sweeps on their schedules, plus the health endpoints.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, runOptions{longRunning: true}, runWorker)
		},
	}

	return cmd
}

func runWorker(ctx context.Context, a *app.App) error {
	jobs, err := a.Jobs()
	if err != nil {
		return err
	}

	checks := a.Checks()
	checks["jobs"] = job.Healthcheck(jobs)

	cfg := a.Config
	router := ops.Router(checks, a.Logger, health.WithTimeout(cfg.Ops.CheckTimeout))
	server := ops.NewServer(cfg.Ops.Addr, router, a.Logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, cfg.ShutdownTimeout)
	})
	g.Go(func() error {
		// Jobs are stopped gracefully by the App's shutdown hook, not by ctx.
		if err := jobs.Start(context.WithoutCancel(ctx)); err != nil {
			return err
		}
		<-ctx.Done()
		a.Logger.InfoContext(ctx, "worker stopping", slog.Any("tasks", jobs.Tasks()))
		return nil
	})

	return g.Wait()
}
