package cli

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/filevault/internal/app"
	"github.com/dmitrymomot/filevault/internal/config"
	"github.com/dmitrymomot/filevault/pkg/logger"
)

const flushTimeout = 2 * time.Second

type runOptions struct {
	// longRunning disables the per-command operation timeout.
	longRunning bool
}

// withApp loads the config, builds the App and runs fn with a context that is
// cancelled on SIGINT or SIGTERM.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	return runApp(cmd, runOptions{}, fn)
}

func runApp(cmd *cobra.Command, ro runOptions, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log, logger.DefaultExtractors()...)
	defer func() { _ = logger.Flush(flushTimeout)(context.Background()) }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !ro.longRunning && cfg.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.OperationTimeout)
		defer cancel()
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		_ = a.Close(closeCtx)
	}()

	return fn(ctx, a)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
