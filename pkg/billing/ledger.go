package billing

import (
	"context"
	"log/slog"
)

// Activity names a cost-relevant event.
type Activity string

// Activities emitted by the version lifecycle and the background policies.
const (
	ActivityVersionUploaded     Activity = "version_uploaded"
	ActivityVersionDeleted      Activity = "version_deleted"
	ActivityVersionRestored     Activity = "version_restored"
	ActivityStorageClassChanged Activity = "storage_class_changed"
)

// Details carries activity-specific attributes.
type Details map[string]any

// Ledger receives cost-relevant activity.
type Ledger interface {
	Record(ctx context.Context, tenant string, activity Activity, details Details) error
}

// LedgerFunc adapts a function to the Ledger interface.
type LedgerFunc func(ctx context.Context, tenant string, activity Activity, details Details) error

// Record calls f.
func (f LedgerFunc) Record(ctx context.Context, tenant string, activity Activity, details Details) error {
	return f(ctx, tenant, activity, details)
}

// Nop is a Ledger that discards everything.
type Nop struct{}

// Record does nothing.
func (Nop) Record(context.Context, string, Activity, Details) error { return nil }

// LogLedger writes activity to a structured logger.
type LogLedger struct {
	log *slog.Logger
}

// NewLogLedger creates a ledger that logs every activity at info level.
func NewLogLedger(log *slog.Logger) *LogLedger {
	if log == nil {
		log = slog.Default()
	}
	return &LogLedger{log: log}
}

// Record logs the activity.
func (l *LogLedger) Record(ctx context.Context, tenant string, activity Activity, details Details) error {
	if tenant == "" || activity == "" {
		return ErrInvalidActivity
	}
	attrs := make([]any, 0, len(details)+2)
	attrs = append(attrs,
		slog.String("tenant", tenant),
		slog.String("activity", string(activity)),
	)
	for k, v := range details {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.log.InfoContext(ctx, "billing activity", attrs...)
	return nil
}

var (
	_ Ledger = Nop{}
	_ Ledger = (*LogLedger)(nil)
	_ Ledger = LedgerFunc(nil)
)
