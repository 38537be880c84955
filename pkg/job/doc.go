// Package job runs background tasks on River, a Postgres-backed queue.
//
// Tasks are plain structs. One-off tasks take a JSON payload:
//
//	func (t *CleanupTenant) Name() string { return "retention.cleanup_tenant" }
//	func (t *CleanupTenant) Handle(ctx context.Context, p TenantPayload) error
//
// Periodic tasks add a cron expression and take no payload:
//
//	func (t *RetentionSweep) Schedule() string { return "0 3 * * *" }
//	func (t *RetentionSweep) Handle(ctx context.Context) error
//
// Both are registered on the Manager:
//
//	m, err := job.NewManager(pool,
//		job.WithTask(cleanupTenant),
//		job.WithScheduledTask(retentionSweep),
//		job.WithLogger(log),
//	)
//	if err := m.Start(ctx); err != nil { ... }
//	defer m.Stop(ctx)
//
//	err = m.Enqueue(ctx, "retention.cleanup_tenant", TenantPayload{Tenant: id},
//		job.UniqueFor(time.Hour), job.UniqueKey(id))
//
// Processes that only hand work to workers use NewEnqueuer. River's own
// schema is managed with Migrate, Rollback and MigrationStatus.
package job
