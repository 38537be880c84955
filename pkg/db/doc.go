// Package db provides PostgreSQL connection, transaction and migration helpers
// built on [github.com/jackc/pgx/v5/pgxpool].
//
// # Configuration
//
// [Config] is populated from environment variables:
//
//	DATABASE_CONN_URL           - PostgreSQL connection URL (required by the postgres store and ledger)
//	DATABASE_MAX_OPEN_CONNS     - Maximum open connections (default: 10)
//	DATABASE_MIN_CONNS          - Minimum idle connections (default: 2)
//	DATABASE_HEALTHCHECK_PERIOD - Pool health check interval (default: 1m)
//	DATABASE_MAX_CONN_IDLE_TIME - Maximum connection idle time (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - Maximum connection lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - Connection retry attempts (default: 3)
//	DATABASE_RETRY_INTERVAL     - Base retry interval (default: 5s)
//	DATABASE_MIGRATIONS_TABLE   - Goose version table (default: schema_migrations)
//
// # Usage
//
//	pool, err := db.Connect(ctx, cfg.DB)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
// # Transactions
//
// [WithTx] rolls back on error or panic and commits otherwise:
//
//	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
//		_, err := tx.Exec(ctx, "UPDATE files SET revision = revision + 1 WHERE id = $1", id)
//		return err
//	})
//
// # Migrations
//
// Schema migrations are goose SQL files embedded by the caller:
//
//	err := db.Migrate(ctx, pool, migrations.FS, cfg.DB.MigrationsTable, logger)
//
// [Rollback] and [MigrationStatus] back the CLI's migrate subcommands.
//
// # Health Checks
//
// [Healthcheck] returns a func(context.Context) error suitable for readiness probes.
//
// Errors are wrapped with [errors.Join] so callers can match the sentinel
// errors declared in this package.
package db
