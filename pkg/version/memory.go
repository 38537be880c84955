package version

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

type memKey struct {
	tenant string
	id     string
}

type identKey struct {
	tenant string
	ident  Identity
}

// memEntry guards one file. A nil file marks an identity reserved by an
// Upsert that has not committed; the next Upsert for the identity reuses it.
type memEntry struct {
	file *File
	mu   sync.Mutex
}

// MemoryStore is an in-process Store with one mutex per file.
// It is intended for tests, local development and single-node deployments.
type MemoryStore struct {
	files  map[memKey]*memEntry
	idents map[identKey]*memEntry
	mu     sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files:  make(map[memKey]*memEntry),
		idents: make(map[identKey]*memEntry),
	}
}

// Get returns a copy of the file.
func (s *MemoryStore) Get(ctx context.Context, tenant, fileID string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := s.lookup(tenant, fileID)
	if !ok {
		return nil, ErrFileNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.file == nil {
		return nil, ErrFileNotFound
	}
	return e.file.Clone(), nil
}

// Mutate applies fn to a copy of the file under the file's lock and swaps
// the copy in only when fn succeeds.
func (s *MemoryStore) Mutate(ctx context.Context, tenant, fileID string, fn MutateFunc) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := s.lookup(tenant, fileID)
	if !ok {
		return nil, ErrFileNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.file == nil {
		return nil, ErrFileNotFound
	}

	next := e.file.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	next.Revision = e.file.Revision + 1
	e.file = next
	return next.Clone(), nil
}

// Upsert mutates the file with the given identity, creating it if needed.
func (s *MemoryStore) Upsert(ctx context.Context, tenant string, ident Identity, fn UpsertFunc) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ik := identKey{tenant: tenant, ident: ident}

	e := s.lockIdentity(ik)
	defer e.mu.Unlock()

	if e.file != nil {
		next := e.file.Clone()
		if err := fn(next, false); err != nil {
			return nil, err
		}
		next.Revision = e.file.Revision + 1
		e.file = next
		return next.Clone(), nil
	}

	next := NewFile(tenant, ident)
	if err := fn(next, true); err != nil {
		// Release the reservation so the identity stays free.
		s.mu.Lock()
		if s.idents[ik] == e {
			delete(s.idents, ik)
		}
		s.mu.Unlock()
		return nil, err
	}
	next.Revision = 1
	e.file = next

	s.mu.Lock()
	s.files[memKey{tenant: tenant, id: next.ID}] = e
	s.mu.Unlock()

	return next.Clone(), nil
}

// lockIdentity returns the locked entry of an identity, reserving a new one
// when none exists. An abandoned reservation is skipped and looked up again.
func (s *MemoryStore) lockIdentity(ik identKey) *memEntry {
	for {
		s.mu.Lock()
		e, ok := s.idents[ik]
		if !ok {
			// Reserve the identity; the entry is locked before it becomes visible.
			e = &memEntry{}
			e.mu.Lock()
			s.idents[ik] = e
			s.mu.Unlock()
			return e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if e.file != nil {
			return e
		}
		// The creator failed and removed the reservation.
		e.mu.Unlock()
	}
}

// Insert stores a copy of f prepared by PrepareInsert.
func (s *MemoryStore) Insert(ctx context.Context, f *File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec, err := PrepareInsert(f)
	if err != nil {
		return err
	}
	k := memKey{tenant: rec.TenantID, id: rec.ID}
	ik := identKey{tenant: rec.TenantID, ident: rec.Identity()}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[k]; ok {
		return ErrFileExists
	}
	if _, ok := s.idents[ik]; ok {
		return ErrFileExists
	}

	e := &memEntry{file: rec}
	s.files[k] = e
	s.idents[ik] = e
	return nil
}

// ListByTenant returns copies of the tenant's files ordered by creation time.
func (s *MemoryStore) ListByTenant(ctx context.Context, tenant string) ([]*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entries := make([]*memEntry, 0)
	for k, e := range s.files {
		if k.tenant == tenant {
			entries = append(entries, e)
		}
	}
	s.mu.RUnlock()

	files := make([]*File, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if e.file != nil {
			files = append(files, e.file.Clone())
		}
		e.mu.Unlock()
	}

	slices.SortFunc(files, func(a, b *File) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return files, nil
}

// Tenants returns the sorted set of tenants that own files.
func (s *MemoryStore) Tenants(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for k := range s.files {
		seen[k.tenant] = struct{}{}
	}
	tenants := make([]string, 0, len(seen))
	for t := range seen {
		tenants = append(tenants, t)
	}
	slices.Sort(tenants)
	return tenants, nil
}

func (s *MemoryStore) lookup(tenant, fileID string) (*memEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.files[memKey{tenant: tenant, id: fileID}]
	return e, ok
}

var _ Store = (*MemoryStore)(nil)
