package version

import "context"

// MutateFunc changes a file in place. Returning an error aborts the mutation
// and nothing is persisted.
type MutateFunc func(f *File) error

// UpsertFunc changes a file in place. created is true when no file existed
// for the identity and f is a fresh record carrying only its ID, tenant and
// identity fields.
type UpsertFunc func(f *File, created bool) error

// Store gives atomic access to file aggregates keyed by (tenant, file ID).
//
// Every read-modify-write of an aggregate must go through Mutate or Upsert.
// Implementations serialize concurrent mutations of the same file and let
// mutations of different files run in parallel. Returned files are copies
// owned by the caller.
type Store interface {
	// Get returns the file or ErrFileNotFound.
	Get(ctx context.Context, tenant, fileID string) (*File, error)

	// Mutate loads the file, applies fn and persists the result as one
	// atomic unit. Returns ErrFileNotFound if the file does not exist.
	Mutate(ctx context.Context, tenant, fileID string, fn MutateFunc) (*File, error)

	// Upsert is Mutate keyed by identity. If no file exists for the identity,
	// a new one is created from the result of fn.
	Upsert(ctx context.Context, tenant string, ident Identity, fn UpsertFunc) (*File, error)

	// Insert stores a copy of a complete record, e.g. imported legacy data.
	// The record goes through PrepareInsert: a record without an ID gets a
	// fresh one on the copy, and a versioned record must pass Validate.
	// f itself is never modified. Returns ErrInvariantViolation for a
	// rejected record and ErrFileExists if the ID or identity is taken.
	Insert(ctx context.Context, f *File) error

	// ListByTenant returns every file owned by the tenant.
	ListByTenant(ctx context.Context, tenant string) ([]*File, error)

	// Tenants returns every tenant that owns at least one file.
	Tenants(ctx context.Context) ([]string, error)
}

// PrepareInsert returns the copy of f every Store persists from Insert.
// Unversioned records are accepted as they are, since they are upgraded on
// their first versioned operation; versioned records must satisfy every
// aggregate invariant. The copy gets a new ID when f has none and a
// revision of at least 1.
func PrepareInsert(f *File) (*File, error) {
	if f == nil {
		return nil, violation("nil record")
	}
	if f.TenantID == "" {
		return nil, violation("file %s has no tenant", f.ID)
	}
	if f.Shape() == ShapeVersioned {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}

	rec := f.Clone()
	if rec.ID == "" {
		rec.ID = newID()
	}
	rec.Revision = max(rec.Revision, 1)
	return rec, nil
}
