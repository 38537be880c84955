package version_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filevault/pkg/billing"
	"github.com/dmitrymomot/filevault/pkg/pricing"
	"github.com/dmitrymomot/filevault/pkg/version"
)

type recordedActivity struct {
	details  billing.Details
	tenant   string
	activity billing.Activity
}

type recorder struct {
	events []recordedActivity
	mu     sync.Mutex
}

func (r *recorder) Record(_ context.Context, tenant string, activity billing.Activity, details billing.Details) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedActivity{tenant: tenant, activity: activity, details: details})
	return nil
}

func (r *recorder) activities() []billing.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]billing.Activity, len(r.events))
	for i, e := range r.events {
		out[i] = e.activity
	}
	return out
}

var ident = version.Identity{OriginalName: "report.pdf", ParentFolderID: "folder-1"}

func newManager(t *testing.T, opts ...version.Option) (*version.Manager, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]version.Option{version.WithLedger(rec)}, opts...)
	return version.NewManager(version.NewMemoryStore(), opts...), rec
}

func upload(t *testing.T, m *version.Manager, tenant, blob string, size int64) *version.File {
	t.Helper()
	f, err := m.CreateOrNewVersion(context.Background(), tenant, ident, version.Payload{
		BlobKey:    blob,
		Size:       size,
		UploadedBy: "user-1",
	})
	require.NoError(t, err)
	require.NoError(t, f.Validate())
	return f
}

func TestCreateOrNewVersion(t *testing.T) {
	t.Parallel()

	t.Run("first upload creates version 1", func(t *testing.T) {
		t.Parallel()
		m, rec := newManager(t)

		f := upload(t, m, "t1", "k1", 100)
		assert.True(t, f.VersioningEnabled)
		assert.Equal(t, 1, f.CurrentVersionNumber)
		assert.Equal(t, 1, f.TotalVersions)
		assert.Equal(t, "k1", f.BlobKey)
		assert.EqualValues(t, 100, f.FileSize)
		assert.Equal(t, pricing.ClassStandard, f.StorageClass)
		assert.Equal(t, []billing.Activity{billing.ActivityVersionUploaded}, rec.activities())
	})

	t.Run("second upload appends active version", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t)

		first := upload(t, m, "t1", "k1", 100)
		second := upload(t, m, "t1", "k2", 200)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 2, second.CurrentVersionNumber)
		require.Len(t, second.Versions, 2)
		assert.False(t, second.Versions[0].IsActive)
		assert.True(t, second.Versions[1].IsActive)
		assert.Equal(t, "k2", second.BlobKey)
		assert.EqualValues(t, 200, second.FileSize)
	})

	t.Run("payload fields are kept", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t)
		meta := map[string]string{"source": "api"}

		f, err := m.CreateOrNewVersion(context.Background(), "t1", ident, version.Payload{
			BlobKey:      "k",
			Size:         5,
			StorageClass: pricing.ClassGlacierIR,
			MimeType:     "application/pdf",
			UploadedBy:   "u",
			Comment:      "first draft",
			Checksum:     "abc",
			Metadata:     meta,
		})
		require.NoError(t, err)
		meta["source"] = "mutated"

		v, ok := f.ActiveVersion()
		require.True(t, ok)
		assert.Equal(t, pricing.ClassGlacierIR, v.StorageClass)
		assert.Equal(t, "first draft", v.Comment)
		assert.Equal(t, "abc", v.Checksum)
		assert.Equal(t, "api", v.Metadata["source"])
		assert.Equal(t, "application/pdf", f.MimeType)
	})

	t.Run("invalid storage class", func(t *testing.T) {
		t.Parallel()
		m, rec := newManager(t)

		_, err := m.CreateOrNewVersion(context.Background(), "t1", ident, version.Payload{
			BlobKey:      "k",
			StorageClass: "COLD",
		})
		require.ErrorIs(t, err, pricing.ErrInvalidStorageClass)
		assert.Empty(t, rec.activities())
	})

	t.Run("upgrades legacy file", func(t *testing.T) {
		t.Parallel()
		store := version.NewMemoryStore()
		m := version.NewManager(store)
		require.NoError(t, store.Insert(context.Background(), &version.File{
			ID:             "legacy",
			TenantID:       "t1",
			OriginalName:   ident.OriginalName,
			ParentFolderID: ident.ParentFolderID,
			BlobKey:        "old",
			FileSize:       10,
		}))

		f := upload(t, m, "t1", "new", 20)
		assert.Equal(t, "legacy", f.ID)
		require.Len(t, f.Versions, 2)
		assert.Equal(t, "old", f.Versions[0].BlobKey)
		assert.Equal(t, "Initial version", f.Versions[0].Comment)
		assert.Equal(t, 2, f.CurrentVersionNumber)
	})

	t.Run("concurrent uploads", func(t *testing.T) {
		t.Parallel()
		m, rec := newManager(t)

		const workers = 50
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := m.CreateOrNewVersion(context.Background(), "t1", ident, version.Payload{BlobKey: "k", Size: 1})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		files, err := m.Files(context.Background(), "t1")
		require.NoError(t, err)
		require.Len(t, files, 1)

		f := files[0]
		require.NoError(t, f.Validate())
		assert.Equal(t, workers, f.TotalVersions)
		assert.Equal(t, workers, f.CurrentVersionNumber)
		assert.Len(t, rec.activities(), workers)

		seen := make(map[int]bool)
		for _, v := range f.Versions {
			assert.False(t, seen[v.VersionNumber])
			seen[v.VersionNumber] = true
		}
	})
}

func TestRestoreVersion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, rec := newManager(t)
	upload(t, m, "t1", "k1", 100)
	upload(t, m, "t1", "k2", 200)
	f := upload(t, m, "t1", "k3", 300)

	restored, err := m.RestoreVersion(ctx, "t1", f.ID, f.Versions[0].VersionID)
	require.NoError(t, err)
	require.NoError(t, restored.Validate())
	assert.Equal(t, 1, restored.CurrentVersionNumber)
	assert.Equal(t, 3, restored.TotalVersions)
	assert.Equal(t, "k1", restored.BlobKey)
	assert.EqualValues(t, 100, restored.FileSize)
	assert.Contains(t, rec.activities(), billing.ActivityVersionRestored)

	// A new upload after a restore still gets a fresh number.
	next := upload(t, m, "t1", "k4", 400)
	assert.Equal(t, 4, next.CurrentVersionNumber)

	_, err = m.RestoreVersion(ctx, "t1", f.ID, "missing")
	require.ErrorIs(t, err, version.ErrVersionNotFound)

	_, err = m.RestoreVersion(ctx, "t2", f.ID, f.Versions[0].VersionID)
	require.ErrorIs(t, err, version.ErrFileNotFound)
}

func TestDeleteVersion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("only version", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t)
		f := upload(t, m, "t1", "k1", 1)

		_, _, err := m.DeleteVersion(ctx, "t1", f.ID, f.Versions[0].VersionID)
		require.ErrorIs(t, err, version.ErrCannotDeleteOnlyVersion)
	})

	t.Run("active version", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t)
		upload(t, m, "t1", "k1", 1)
		f := upload(t, m, "t1", "k2", 1)

		_, _, err := m.DeleteVersion(ctx, "t1", f.ID, f.Versions[1].VersionID)
		require.ErrorIs(t, err, version.ErrCannotDeleteActiveVersion)
	})

	t.Run("missing version", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t)
		f := upload(t, m, "t1", "k1", 1)

		_, _, err := m.DeleteVersion(ctx, "t1", f.ID, "missing")
		require.ErrorIs(t, err, version.ErrVersionNotFound)
	})

	t.Run("inactive version", func(t *testing.T) {
		t.Parallel()
		m, rec := newManager(t)
		upload(t, m, "t1", "k1", 10)
		f := upload(t, m, "t1", "k2", 20)

		got, removed, err := m.DeleteVersion(ctx, "t1", f.ID, f.Versions[0].VersionID)
		require.NoError(t, err)
		require.NoError(t, got.Validate())
		assert.Equal(t, "k1", removed.BlobKey)
		assert.Equal(t, 1, got.TotalVersions)
		assert.Equal(t, 2, got.CurrentVersionNumber)
		assert.Contains(t, rec.activities(), billing.ActivityVersionDeleted)
	})
}

func TestUpdateVersionMetadata(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newManager(t)
	f := upload(t, m, "t1", "k1", 1)
	id := f.Versions[0].VersionID

	comment := "reviewed"
	v, err := m.UpdateVersionMetadata(ctx, "t1", f.ID, id, version.MetadataPatch{
		Comment:  &comment,
		Metadata: map[string]string{"a": "1", "b": "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "reviewed", v.Comment)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, v.Metadata)

	v, err = m.UpdateVersionMetadata(ctx, "t1", f.ID, id, version.MetadataPatch{
		Metadata: map[string]string{"a": "", "c": "3"},
	})
	require.NoError(t, err)
	assert.Equal(t, "reviewed", v.Comment)
	assert.Equal(t, map[string]string{"b": "2", "c": "3"}, v.Metadata)

	_, err = m.UpdateVersionMetadata(ctx, "t1", f.ID, "missing", version.MetadataPatch{})
	require.ErrorIs(t, err, version.ErrVersionNotFound)
}

func TestUpgradeLegacy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := version.NewMemoryStore()
	now := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
	m := version.NewManager(store, version.WithClock(func() time.Time { return now }))

	require.NoError(t, store.Insert(ctx, &version.File{ID: "legacy", TenantID: "t1", OriginalName: "x", BlobKey: "k", FileSize: 9}))

	f, err := m.UpgradeLegacy(ctx, "t1", "legacy")
	require.NoError(t, err)
	require.NoError(t, f.Validate())
	assert.Equal(t, version.ShapeVersioned, f.Shape())
	assert.Equal(t, now, f.UpdatedAt)

	again, err := m.UpgradeLegacy(ctx, "t1", "legacy")
	require.NoError(t, err)
	assert.Equal(t, f.Revision, again.Revision)
}

func TestRetier(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, rec := newManager(t)
	upload(t, m, "t1", "k1", 10)
	f := upload(t, m, "t1", "k2", 20)

	got, changes, err := m.Retier(ctx, "t1", f.ID, func(_ *version.File, v version.Version) (pricing.StorageClass, bool) {
		if v.IsActive {
			return pricing.ClassStandardIA, true
		}
		return pricing.ClassGlacier, true
	})
	require.NoError(t, err)
	require.NoError(t, got.Validate())
	require.Len(t, changes, 2)
	assert.Equal(t, pricing.ClassStandardIA, got.StorageClass)
	assert.Equal(t, pricing.ClassGlacier, got.Versions[0].StorageClass)

	var classChanges int
	for _, a := range rec.activities() {
		if a == billing.ActivityStorageClassChanged {
			classChanges++
		}
	}
	assert.Equal(t, 2, classChanges)

	_, changes, err = m.Retier(ctx, "t1", f.ID, func(_ *version.File, v version.Version) (pricing.StorageClass, bool) {
		return v.StorageClass, true
	})
	require.NoError(t, err)
	assert.Empty(t, changes)

	_, _, err = m.Retier(ctx, "t1", f.ID, func(*version.File, version.Version) (pricing.StorageClass, bool) {
		return "BOGUS", true
	})
	require.ErrorIs(t, err, pricing.ErrInvalidStorageClass)
}

func TestLedgerFailureDoesNotFailMutation(t *testing.T) {
	t.Parallel()

	failing := billing.LedgerFunc(func(context.Context, string, billing.Activity, billing.Details) error {
		return billing.ErrRecordFailed
	})
	m := version.NewManager(version.NewMemoryStore(), version.WithLedger(failing))

	_, err := m.CreateOrNewVersion(context.Background(), "t1", ident, version.Payload{BlobKey: "k"})
	require.NoError(t, err)
}

func TestSetStorageClasses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newManager(t)
	upload(t, m, "t1", "k1", 10)
	f := upload(t, m, "t1", "k2", 20)

	got, changes, err := m.SetStorageClasses(ctx, "t1", f.ID, map[string]pricing.StorageClass{
		f.Versions[0].VersionID: pricing.ClassDeepArchive,
		"gone":                  pricing.ClassGlacier,
	})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, pricing.ClassStandard, changes[0].From)
	assert.Equal(t, pricing.ClassDeepArchive, changes[0].To)
	assert.Equal(t, pricing.ClassDeepArchive, got.Versions[0].StorageClass)
	assert.Equal(t, pricing.ClassStandard, got.StorageClass)
}
