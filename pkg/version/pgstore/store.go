package pgstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/filevault/pkg/db"
	"github.com/dmitrymomot/filevault/pkg/version"
)

const (
	selectByIDSQL = `SELECT data FROM files WHERE tenant_id = $1 AND id = $2`

	lockByIDSQL = selectByIDSQL + ` FOR UPDATE`

	lockByIdentitySQL = `SELECT data FROM files
		WHERE tenant_id = $1 AND original_name = $2 AND parent_folder_id = $3
		FOR UPDATE`

	insertSQL = `INSERT INTO files
		(tenant_id, id, original_name, parent_folder_id, revision, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING`

	updateSQL = `UPDATE files SET revision = $3, data = $4, updated_at = $5
		WHERE tenant_id = $1 AND id = $2`

	listByTenantSQL = `SELECT data FROM files WHERE tenant_id = $1 ORDER BY created_at, id`

	tenantsSQL = `SELECT DISTINCT tenant_id FROM files ORDER BY tenant_id`
)

// errCreateRace is returned inside the transaction when another writer
// created the same identity first.
var errCreateRace = errors.New("pgstore: concurrent create")

// Store is a PostgreSQL-backed version.Store.
type Store struct {
	pool        *pgxpool.Pool
	maxAttempts int
}

// Option configures a Store.
type Option func(*Store)

// WithMaxAttempts bounds how often Upsert retries after losing a create race.
// Default: 3.
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// New creates a Store on top of a connection pool.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool, maxAttempts: 3}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the file or version.ErrFileNotFound.
func (s *Store) Get(ctx context.Context, tenant, fileID string) (*version.File, error) {
	return scanFile(s.pool.QueryRow(ctx, selectByIDSQL, tenant, fileID))
}

// Mutate locks the row, applies fn and writes the result back in one transaction.
func (s *Store) Mutate(ctx context.Context, tenant, fileID string, fn version.MutateFunc) (*version.File, error) {
	var out *version.File
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		f, err := scanFile(tx.QueryRow(ctx, lockByIDSQL, tenant, fileID))
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			return err
		}
		if err := update(ctx, tx, f); err != nil {
			return err
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert locks the file with the given identity, or creates it.
func (s *Store) Upsert(ctx context.Context, tenant string, ident version.Identity, fn version.UpsertFunc) (*version.File, error) {
	for range s.maxAttempts {
		var out *version.File
		err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
			f, err := scanFile(tx.QueryRow(ctx, lockByIdentitySQL, tenant, ident.OriginalName, ident.ParentFolderID))
			switch {
			case errors.Is(err, version.ErrFileNotFound):
				f = version.NewFile(tenant, ident)
				if err := fn(f, true); err != nil {
					return err
				}
				f.Revision = 1
				created, err := insert(ctx, tx, f)
				if err != nil {
					return err
				}
				if !created {
					return errCreateRace
				}
			case err != nil:
				return err
			default:
				if err := fn(f, false); err != nil {
					return err
				}
				if err := update(ctx, tx, f); err != nil {
					return err
				}
			}
			out = f
			return nil
		})
		if errors.Is(err, errCreateRace) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, version.ErrConcurrentModification
}

// Insert stores a copy of f prepared by version.PrepareInsert. Returns
// version.ErrFileExists if the ID or identity is already taken.
func (s *Store) Insert(ctx context.Context, f *version.File) error {
	rec, err := version.PrepareInsert(f)
	if err != nil {
		return err
	}
	created, err := insert(ctx, s.pool, rec)
	if err != nil {
		return err
	}
	if !created {
		return version.ErrFileExists
	}
	return nil
}

// ListByTenant returns the tenant's files ordered by creation time.
func (s *Store) ListByTenant(ctx context.Context, tenant string) ([]*version.File, error) {
	rows, err := s.pool.Query(ctx, listByTenantSQL, tenant)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	raw, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}

	files := make([]*version.File, 0, len(raw))
	for _, data := range raw {
		f, err := decode(data)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// Tenants returns every tenant that owns at least one file.
func (s *Store) Tenants(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, tenantsSQL)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	tenants, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	return tenants, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insert(ctx context.Context, q execer, f *version.File) (bool, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return false, errors.Join(ErrEncode, err)
	}
	tag, err := q.Exec(ctx, insertSQL,
		f.TenantID, f.ID, f.OriginalName, f.ParentFolderID,
		f.Revision, data, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return false, errors.Join(ErrQuery, err)
	}
	return tag.RowsAffected() == 1, nil
}

func update(ctx context.Context, q execer, f *version.File) error {
	f.Revision++
	data, err := json.Marshal(f)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}
	if _, err := q.Exec(ctx, updateSQL, f.TenantID, f.ID, f.Revision, data, f.UpdatedAt); err != nil {
		return errors.Join(ErrQuery, err)
	}
	return nil
}

func scanFile(row pgx.Row) (*version.File, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, version.ErrFileNotFound
		}
		return nil, errors.Join(ErrQuery, err)
	}
	return decode(data)
}

func decode(data []byte) (*version.File, error) {
	var f version.File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	return &f, nil
}

var _ version.Store = (*Store)(nil)
