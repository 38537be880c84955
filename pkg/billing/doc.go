// Package billing records cost-relevant activity for tenants.
//
// A [Ledger] is a fire-and-forget sink: callers report an [Activity] with
// free-form [Details] and treat failures as warnings. A failed Record must
// never roll back the change that triggered it.
//
//	ledger := billing.NewPGLedger(pool)
//	_ = ledger.Record(ctx, tenantID, billing.ActivityVersionUploaded, billing.Details{
//		"file_id":    fileID,
//		"size_bytes": size,
//	})
//
// [LogLedger] writes activity to a slog.Logger and [Nop] discards it, which
// is handy for tests and local development.
package billing
