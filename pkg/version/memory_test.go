package version_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filevault/pkg/version"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ident := version.Identity{OriginalName: "a.txt", ParentFolderID: "root"}

	t.Run("get missing", func(t *testing.T) {
		t.Parallel()
		s := version.NewMemoryStore()
		_, err := s.Get(ctx, "t1", "nope")
		require.ErrorIs(t, err, version.ErrFileNotFound)

		_, err = s.Mutate(ctx, "t1", "nope", func(*version.File) error { return nil })
		require.ErrorIs(t, err, version.ErrFileNotFound)
	})

	t.Run("upsert creates then updates", func(t *testing.T) {
		t.Parallel()
		s := version.NewMemoryStore()

		var calls []bool
		f, err := s.Upsert(ctx, "t1", ident, func(f *version.File, created bool) error {
			calls = append(calls, created)
			f.MimeType = "text/plain"
			return nil
		})
		require.NoError(t, err)
		require.NotEmpty(t, f.ID)
		assert.Equal(t, "t1", f.TenantID)
		assert.Equal(t, ident, f.Identity())
		assert.EqualValues(t, 1, f.Revision)

		g, err := s.Upsert(ctx, "t1", ident, func(f *version.File, created bool) error {
			calls = append(calls, created)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, f.ID, g.ID)
		assert.EqualValues(t, 2, g.Revision)
		assert.Equal(t, []bool{true, false}, calls)
	})

	t.Run("failed create is not visible", func(t *testing.T) {
		t.Parallel()
		s := version.NewMemoryStore()

		_, err := s.Upsert(ctx, "t1", ident, func(*version.File, bool) error { return assert.AnError })
		require.ErrorIs(t, err, assert.AnError)

		files, err := s.ListByTenant(ctx, "t1")
		require.NoError(t, err)
		assert.Empty(t, files)

		_, err = s.Upsert(ctx, "t1", ident, func(_ *version.File, created bool) error {
			assert.True(t, created)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("failed mutate keeps state", func(t *testing.T) {
		t.Parallel()
		s := version.NewMemoryStore()
		f, err := s.Upsert(ctx, "t1", ident, func(f *version.File, _ bool) error {
			f.MimeType = "a"
			return nil
		})
		require.NoError(t, err)

		_, err = s.Mutate(ctx, "t1", f.ID, func(f *version.File) error {
			f.MimeType = "b"
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)

		got, err := s.Get(ctx, "t1", f.ID)
		require.NoError(t, err)
		assert.Equal(t, "a", got.MimeType)
		assert.EqualValues(t, 1, got.Revision)
	})

	t.Run("returned files are copies", func(t *testing.T) {
		t.Parallel()
		s := version.NewMemoryStore()
		f, err := s.Upsert(ctx, "t1", ident, func(*version.File, bool) error { return nil })
		require.NoError(t, err)

		f.MimeType = "mutated"
		got, err := s.Get(ctx, "t1", f.ID)
		require.NoError(t, err)
		assert.Empty(t, got.MimeType)
	})

	t.Run("tenants are isolated", func(t *testing.T) {
		t.Parallel()
		s := version.NewMemoryStore()
		a, err := s.Upsert(ctx, "t1", ident, func(*version.File, bool) error { return nil })
		require.NoError(t, err)
		b, err := s.Upsert(ctx, "t2", ident, func(*version.File, bool) error { return nil })
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)

		_, err = s.Get(ctx, "t2", a.ID)
		require.ErrorIs(t, err, version.ErrFileNotFound)

		tenants, err := s.Tenants(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"t1", "t2"}, tenants)
	})

	t.Run("insert and list order", func(t *testing.T) {
		t.Parallel()
		s := version.NewMemoryStore()
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		require.NoError(t, s.Insert(ctx, &version.File{ID: "b", TenantID: "t1", OriginalName: "b", CreatedAt: base.Add(time.Hour)}))
		require.NoError(t, s.Insert(ctx, &version.File{ID: "a", TenantID: "t1", OriginalName: "a", CreatedAt: base}))

		err := s.Insert(ctx, &version.File{ID: "a", TenantID: "t1", OriginalName: "other"})
		require.ErrorIs(t, err, version.ErrFileExists)
		err = s.Insert(ctx, &version.File{ID: "c", TenantID: "t1", OriginalName: "a"})
		require.ErrorIs(t, err, version.ErrFileExists)

		files, err := s.ListByTenant(ctx, "t1")
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, "a", files[0].ID)
		assert.Equal(t, "b", files[1].ID)
	})

	t.Run("insert rejects broken versioned record", func(t *testing.T) {
		t.Parallel()
		s := version.NewMemoryStore()
		day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		f := &version.File{
			ID: "f1", TenantID: "t1", OriginalName: "a.txt",
			VersioningEnabled: true, TotalVersions: 3, CurrentVersionNumber: 2,
			BlobKey: "b2", FileSize: 2, StorageClass: "STANDARD", UploadDate: day,
			Versions: []version.Version{
				{VersionID: "v1", VersionNumber: 1, BlobKey: "b1", FileSize: 1, StorageClass: "STANDARD", UploadDate: day, IsActive: true},
				{VersionID: "v2", VersionNumber: 2, BlobKey: "b2", FileSize: 2, StorageClass: "STANDARD", UploadDate: day, IsActive: true},
				{VersionID: "v3", VersionNumber: 3, BlobKey: "b3", FileSize: 3, StorageClass: "STANDARD", UploadDate: day},
			},
		}

		require.ErrorIs(t, s.Insert(ctx, f), version.ErrInvariantViolation)
		_, err := s.Get(ctx, "t1", "f1")
		require.ErrorIs(t, err, version.ErrFileNotFound)

		f.Versions[0].IsActive = false
		require.NoError(t, s.Insert(ctx, f))
		got, _, err := version.NewManager(s).DeleteVersion(ctx, "t1", "f1", "v3")
		require.NoError(t, err)
		assert.Equal(t, 2, got.TotalVersions)
	})

	t.Run("insert assigns ids without touching the input", func(t *testing.T) {
		t.Parallel()
		s := version.NewMemoryStore()
		a := &version.File{TenantID: "t1", OriginalName: "a.txt", BlobKey: "a"}
		b := &version.File{TenantID: "t1", OriginalName: "b.txt", BlobKey: "b"}

		require.NoError(t, s.Insert(ctx, a))
		require.NoError(t, s.Insert(ctx, b))
		assert.Empty(t, a.ID)
		assert.Empty(t, b.ID)

		files, err := s.ListByTenant(ctx, "t1")
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.NotEmpty(t, files[0].ID)
		assert.NotEqual(t, files[0].ID, files[1].ID)
	})

	t.Run("failed create frees the identity", func(t *testing.T) {
		t.Parallel()
		s := version.NewMemoryStore()
		boom := errors.New("boom")

		_, err := s.Upsert(ctx, "t1", ident, func(*version.File, bool) error { return boom })
		require.ErrorIs(t, err, boom)

		legacy := &version.File{TenantID: "t1", OriginalName: ident.OriginalName, ParentFolderID: ident.ParentFolderID}
		require.NoError(t, s.Insert(ctx, legacy))

		files, err := s.ListByTenant(ctx, "t1")
		require.NoError(t, err)
		require.Len(t, files, 1)

		_, err = s.Upsert(ctx, "t2", ident, func(*version.File, bool) error { return boom })
		require.ErrorIs(t, err, boom)
		f, err := s.Upsert(ctx, "t2", ident, func(_ *version.File, created bool) error {
			assert.True(t, created)
			return nil
		})
		require.NoError(t, err)
		assert.NotEmpty(t, f.ID)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		s := version.NewMemoryStore()
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := s.Get(cctx, "t1", "x")
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("mutations are serialized", func(t *testing.T) {
		t.Parallel()
		s := version.NewMemoryStore()
		f, err := s.Upsert(ctx, "t1", ident, func(*version.File, bool) error { return nil })
		require.NoError(t, err)

		const workers = 50
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Mutate(ctx, "t1", f.ID, func(f *version.File) error {
					f.TotalVersions++
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := s.Get(ctx, "t1", f.ID)
		require.NoError(t, err)
		assert.Equal(t, workers, got.TotalVersions)
		assert.EqualValues(t, workers+1, got.Revision)
	})
}
