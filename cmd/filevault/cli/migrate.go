package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/filevault/internal/app"
	"github.com/dmitrymomot/filevault/internal/migrations"
	"github.com/dmitrymomot/filevault/pkg/db"
	"github.com/dmitrymomot/filevault/pkg/job"
)

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema",
		Long:  "Apply, roll back or inspect the application schema and the job queue schema.",
	}

	cmd.AddCommand(newMigrateUpCommand())
	cmd.AddCommand(newMigrateDownCommand())
	cmd.AddCommand(newMigrateStatusCommand())

	return cmd
}

func newMigrateUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Migrate(ctx)
			})
		},
	}
}

func newMigrateDownCommand() *cobra.Command {
	var queue bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Long:  "Roll back the last application migration, or the last job queue migration with --queue.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if a.Pool == nil {
					return app.ErrNoDatabase
				}
				if queue {
					versions, err := job.Rollback(ctx, a.Pool, a.Logger)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "rolled back queue versions %v\n", versions)
					return nil
				}
				return db.Rollback(ctx, a.Pool, migrations.FS, a.Config.DB.MigrationsTable, a.Logger)
			})
		},
	}

	cmd.Flags().BoolVar(&queue, "queue", false, "Roll back the job queue schema instead")

	return cmd
}

func newMigrateStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if a.Pool == nil {
					return app.ErrNoDatabase
				}
				if err := db.MigrationStatus(ctx, a.Pool, migrations.FS, a.Config.DB.MigrationsTable, a.Logger); err != nil {
					return err
				}
				pending, err := job.MigrationStatus(ctx, a.Pool, a.Logger)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(pending) == 0 {
					fmt.Fprintln(out, "queue schema is up to date")
					return nil
				}
				for _, msg := range pending {
					fmt.Fprintln(out, msg)
				}
				return nil
			})
		},
	}
}
