package job

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"

	"github.com/dmitrymomot/filevault/pkg/logger"
)

// Migrate applies River's queue schema and returns the versions applied.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) ([]int, error) {
	return migrate(ctx, pool, log, rivermigrate.DirectionUp, nil)
}

// Rollback reverts the most recent River schema version.
func Rollback(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) ([]int, error) {
	return migrate(ctx, pool, log, rivermigrate.DirectionDown, &rivermigrate.MigrateOpts{MaxSteps: 1})
}

// MigrationStatus returns River's validation messages. An empty slice
// means the schema is current.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) ([]string, error) {
	m, err := newMigrator(pool, log)
	if err != nil {
		return nil, err
	}
	res, err := m.Validate(ctx)
	if err != nil {
		return nil, errors.Join(ErrMigrationFailed, err)
	}
	return res.Messages, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger, dir rivermigrate.Direction, opts *rivermigrate.MigrateOpts) ([]int, error) {
	m, err := newMigrator(pool, log)
	if err != nil {
		return nil, err
	}
	res, err := m.Migrate(ctx, dir, opts)
	if err != nil {
		return nil, errors.Join(ErrMigrationFailed, err)
	}

	versions := make([]int, 0, len(res.Versions))
	for _, v := range res.Versions {
		versions = append(versions, v.Version)
	}
	return versions, nil
}

func newMigrator(pool *pgxpool.Pool, log *slog.Logger) (*rivermigrate.Migrator[pgx.Tx], error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}
	if log == nil {
		log = logger.NewNope()
	}
	m, err := rivermigrate.New(riverpgxv5.New(pool), &rivermigrate.Config{Logger: log})
	if err != nil {
		return nil, errors.Join(ErrMigrationFailed, err)
	}
	return m, nil
}
