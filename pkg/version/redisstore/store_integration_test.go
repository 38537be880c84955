//go:build integration

package redisstore_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filevault/pkg/redis"
	"github.com/dmitrymomot/filevault/pkg/version"
	"github.com/dmitrymomot/filevault/pkg/version/redisstore"
)

const testRedisURL = "redis://localhost:6379/0"

func newTestStore(t *testing.T, opts ...redisstore.Option) *redisstore.Store {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = testRedisURL
	}

	ctx := context.Background()
	client, err := redis.Open(ctx, url)
	require.NoError(t, err, "failed to connect to Redis")

	prefix := "test-" + uuid.NewString()
	t.Cleanup(func() {
		iter := client.Scan(ctx, 0, prefix+":*", 100).Iterator()
		for iter.Next(ctx) {
			_ = client.Del(ctx, iter.Val()).Err()
		}
		_ = client.Close()
	})

	return redisstore.New(client, append([]redisstore.Option{redisstore.WithPrefix(prefix)}, opts...)...)
}

func TestStore_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	ident := version.Identity{OriginalName: "a.txt", ParentFolderID: "root"}

	f, err := s.Upsert(ctx, "t1", ident, func(f *version.File, created bool) error {
		require.True(t, created)
		return nil
	})
	require.NoError(t, err)

	g, err := s.Upsert(ctx, "t1", ident, func(f *version.File, created bool) error {
		require.False(t, created)
		f.MimeType = "text/plain"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, f.ID, g.ID)
	assert.EqualValues(t, 2, g.Revision)

	_, err = s.Mutate(ctx, "t1", f.ID, func(*version.File) error { return assert.AnError })
	require.ErrorIs(t, err, assert.AnError)

	got, err := s.Get(ctx, "t1", f.ID)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", got.MimeType)
	assert.EqualValues(t, 2, got.Revision)

	_, err = s.Get(ctx, "t1", "missing")
	require.ErrorIs(t, err, version.ErrFileNotFound)

	require.ErrorIs(t, s.Insert(ctx, &version.File{ID: "x", TenantID: "t1", OriginalName: "a.txt", ParentFolderID: "root"}), version.ErrFileExists)
	require.NoError(t, s.Insert(ctx, &version.File{ID: "x", TenantID: "t2", OriginalName: "legacy"}))

	files, err := s.ListByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, files, 1)

	tenants, err := s.Tenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, tenants)
}

func TestStore_ConcurrentUploads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := version.NewManager(newTestStore(t, redisstore.WithMaxAttempts(1000)))
	ident := version.Identity{OriginalName: "shared.txt"}

	const workers = 20
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.CreateOrNewVersion(ctx, "t1", ident, version.Payload{BlobKey: "k", Size: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	files, err := m.Files(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.NoError(t, files[0].Validate())
	assert.Equal(t, workers, files[0].TotalVersions)
}

func TestStore_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t, redisstore.WithMaxAttempts(1))
	f, err := s.Upsert(ctx, "t1", version.Identity{OriginalName: "c"}, func(*version.File, bool) error { return nil })
	require.NoError(t, err)

	// A write inside the watched section aborts the outer transaction.
	_, err = s.Mutate(ctx, "t1", f.ID, func(*version.File) error {
		_, err := s.Mutate(ctx, "t1", f.ID, func(*version.File) error { return nil })
		return err
	})
	require.ErrorIs(t, err, version.ErrConcurrentModification)
}

func TestStore_InsertAssignsIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	a := &version.File{TenantID: "t1", OriginalName: "a.txt", BlobKey: "a"}
	b := &version.File{TenantID: "t1", OriginalName: "b.txt", BlobKey: "b"}
	require.NoError(t, s.Insert(ctx, a))
	require.NoError(t, s.Insert(ctx, b))
	assert.Empty(t, a.ID)

	files, err := s.ListByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.NotEmpty(t, files[0].ID)
	assert.NotEqual(t, files[0].ID, files[1].ID)
}

func TestStore_InsertRejectsBrokenRecord(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	f := &version.File{
		TenantID: "t1", OriginalName: "a.txt", VersioningEnabled: true, TotalVersions: 2,
		Versions: []version.Version{
			{VersionID: "v1", VersionNumber: 1, IsActive: true},
			{VersionID: "v2", VersionNumber: 2, IsActive: true},
		},
	}
	require.ErrorIs(t, s.Insert(ctx, f), version.ErrInvariantViolation)

	tenants, err := s.Tenants(ctx)
	require.NoError(t, err)
	assert.NotContains(t, tenants, "t1")
}
