package redisstore

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/filevault/pkg/version"
)

// Store is a Redis-backed version.Store.
type Store struct {
	client      redis.UniversalClient
	prefix      string
	maxAttempts int
}

// New creates a Store.
func New(client redis.UniversalClient, opts ...Option) *Store {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Store{
		client:      client,
		prefix:      o.prefix,
		maxAttempts: o.maxAttempts,
	}
}

// Get returns the file or version.ErrFileNotFound.
func (s *Store) Get(ctx context.Context, tenant, fileID string) (*version.File, error) {
	return s.load(ctx, s.client, s.fileKey(tenant, fileID))
}

// Mutate applies fn under WATCH on the file key.
func (s *Store) Mutate(ctx context.Context, tenant, fileID string, fn version.MutateFunc) (*version.File, error) {
	key := s.fileKey(tenant, fileID)

	var out *version.File
	err := s.retry(ctx, func(tx *redis.Tx) error {
		f, err := s.load(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			return err
		}
		f.Revision++
		if err := s.commit(ctx, tx, f, false); err != nil {
			return err
		}
		out = f
		return nil
	}, key)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert applies fn to the file owning ident, creating it when absent.
func (s *Store) Upsert(ctx context.Context, tenant string, ident version.Identity, fn version.UpsertFunc) (*version.File, error) {
	identKey := s.identKey(tenant, ident)

	var out *version.File
	err := s.retry(ctx, func(tx *redis.Tx) error {
		id, err := tx.Get(ctx, identKey).Result()
		switch {
		case errors.Is(err, redis.Nil):
			f := version.NewFile(tenant, ident)
			if err := fn(f, true); err != nil {
				return err
			}
			f.Revision = 1
			if err := s.commit(ctx, tx, f, true); err != nil {
				return err
			}
			out = f
			return nil
		case err != nil:
			return errors.Join(ErrRedis, err)
		}

		key := s.fileKey(tenant, id)
		if err := tx.Watch(ctx, key).Err(); err != nil {
			return errors.Join(ErrRedis, err)
		}
		f, err := s.load(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := fn(f, false); err != nil {
			return err
		}
		f.Revision++
		if err := s.commit(ctx, tx, f, false); err != nil {
			return err
		}
		out = f
		return nil
	}, identKey)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Insert stores a copy of f prepared by version.PrepareInsert. Returns
// version.ErrFileExists if the ID or identity is already taken.
func (s *Store) Insert(ctx context.Context, f *version.File) error {
	rec, err := version.PrepareInsert(f)
	if err != nil {
		return err
	}
	fileKey := s.fileKey(rec.TenantID, rec.ID)
	identKey := s.identKey(rec.TenantID, rec.Identity())

	return s.retry(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, fileKey, identKey).Result()
		if err != nil {
			return errors.Join(ErrRedis, err)
		}
		if n > 0 {
			return version.ErrFileExists
		}
		return s.commit(ctx, tx, rec, true)
	}, fileKey, identKey)
}

// ListByTenant returns the tenant's files ordered by creation time.
func (s *Store) ListByTenant(ctx context.Context, tenant string) ([]*version.File, error) {
	ids, err := s.client.SMembers(ctx, s.filesKey(tenant)).Result()
	if err != nil {
		return nil, errors.Join(ErrRedis, err)
	}
	if len(ids) == 0 {
		return []*version.File{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.fileKey(tenant, id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Join(ErrRedis, err)
	}

	files := make([]*version.File, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		f, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	slices.SortFunc(files, func(a, b *version.File) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return files, nil
}

// Tenants returns every tenant that owns at least one file.
func (s *Store) Tenants(ctx context.Context) ([]string, error) {
	tenants, err := s.client.SMembers(ctx, s.tenantsKey()).Result()
	if err != nil {
		return nil, errors.Join(ErrRedis, err)
	}
	slices.Sort(tenants)
	return tenants, nil
}

// retry runs fn in a WATCH transaction until it commits, fails for a reason
// other than a conflicting write, or runs out of attempts.
func (s *Store) retry(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for range s.maxAttempts {
		err := s.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			continue
		}
		return err
	}
	return version.ErrConcurrentModification
}

// commit writes f inside MULTI/EXEC. Index keys are written only for new files.
func (s *Store) commit(ctx context.Context, tx *redis.Tx, f *version.File, created bool) error {
	data, err := json.Marshal(f)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}

	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.fileKey(f.TenantID, f.ID), data, 0)
		if created {
			pipe.Set(ctx, s.identKey(f.TenantID, f.Identity()), f.ID, 0)
			pipe.SAdd(ctx, s.filesKey(f.TenantID), f.ID)
			pipe.SAdd(ctx, s.tenantsKey(), f.TenantID)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		return errors.Join(ErrRedis, err)
	}
	return err
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Store) load(ctx context.Context, c getter, key string) (*version.File, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, version.ErrFileNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrRedis, err)
	}
	return decode(data)
}

func (s *Store) fileKey(tenant, id string) string {
	return s.prefix + ":file:" + tenant + ":" + id
}

// identKey hashes the identity so names containing the separator cannot collide.
func (s *Store) identKey(tenant string, ident version.Identity) string {
	h := sha256.New()
	h.Write([]byte(ident.ParentFolderID))
	h.Write([]byte{0})
	h.Write([]byte(ident.OriginalName))
	return s.prefix + ":ident:" + tenant + ":" + hex.EncodeToString(h.Sum(nil))
}

func (s *Store) filesKey(tenant string) string {
	return s.prefix + ":files:" + tenant
}

func (s *Store) tenantsKey() string {
	return s.prefix + ":tenants"
}

func decode(data []byte) (*version.File, error) {
	var f version.File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	return &f, nil
}

var _ version.Store = (*Store)(nil)
