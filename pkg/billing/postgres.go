package billing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of pgxpool.Pool used by PGLedger.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const insertActivitySQL = `INSERT INTO billing_activities (tenant_id, activity, details) VALUES ($1, $2, $3)`

// PGLedger appends activity rows to the billing_activities table.
type PGLedger struct {
	db Execer
}

// NewPGLedger creates a Postgres-backed ledger.
func NewPGLedger(db Execer) *PGLedger {
	return &PGLedger{db: db}
}

// Record inserts one activity row.
func (l *PGLedger) Record(ctx context.Context, tenant string, activity Activity, details Details) error {
	if tenant == "" || activity == "" {
		return ErrInvalidActivity
	}
	if details == nil {
		details = Details{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return errors.Join(ErrRecordFailed, err)
	}
	if _, err := l.db.Exec(ctx, insertActivitySQL, tenant, string(activity), payload); err != nil {
		return errors.Join(ErrRecordFailed, err)
	}
	return nil
}

var _ Ledger = (*PGLedger)(nil)
