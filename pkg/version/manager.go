package version

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/dmitrymomot/filevault/pkg/billing"
	"github.com/dmitrymomot/filevault/pkg/pricing"
)

// Payload describes the content of a new version.
type Payload struct {
	Metadata     map[string]string
	BlobKey      string
	StorageClass pricing.StorageClass // defaults to pricing.ClassStandard
	UploadedBy   string
	Comment      string
	Checksum     string
	MimeType     string
	Size         int64
}

// MetadataPatch lists the version fields to change. Nil fields are left
// untouched; a metadata key with an empty value is removed.
type MetadataPatch struct {
	Comment  *string
	Metadata map[string]string
}

// RetierFunc decides, inside the file's critical section, whether version v
// should move to another storage class.
type RetierFunc func(f *File, v Version) (pricing.StorageClass, bool)

// ClassChange describes one storage class reassignment.
type ClassChange struct {
	VersionID     string               `json:"version_id"`
	From          pricing.StorageClass `json:"from"`
	To            pricing.StorageClass `json:"to"`
	FileSize      int64                `json:"file_size"`
	VersionNumber int                  `json:"version_number"`
}

// Manager implements the version lifecycle on top of a Store.
// It guarantees the aggregate invariants after every mutation.
type Manager struct {
	store  Store
	ledger billing.Ledger
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a lifecycle manager.
func NewManager(store Store, opts ...Option) *Manager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Manager{
		store:  store,
		ledger: o.ledger,
		logger: o.logger,
		now:    o.now,
	}
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// File returns the current state of a file.
func (m *Manager) File(ctx context.Context, tenant, fileID string) (*File, error) {
	return m.store.Get(ctx, tenant, fileID)
}

// Files returns every file owned by the tenant.
func (m *Manager) Files(ctx context.Context, tenant string) ([]*File, error) {
	return m.store.ListByTenant(ctx, tenant)
}

// CreateOrNewVersion records an upload. The first upload for an identity
// creates the file with version 1; later uploads deactivate the current
// version and append a new active one. Legacy files are upgraded first.
func (m *Manager) CreateOrNewVersion(ctx context.Context, tenant string, ident Identity, p Payload) (*File, error) {
	class := p.StorageClass
	if class == "" {
		class = pricing.ClassStandard
	}
	if !class.Valid() {
		return nil, errors.Join(pricing.ErrInvalidStorageClass, errors.New(string(class)))
	}

	var added Version
	f, err := m.store.Upsert(ctx, tenant, ident, func(f *File, created bool) error {
		now := m.now()
		if created {
			f.CreatedAt = now
			f.VersioningEnabled = true
		} else {
			Upgrade(f, now)
		}

		added = Version{
			VersionID:     newID(),
			VersionNumber: f.nextVersionNumber(),
			BlobKey:       p.BlobKey,
			FileSize:      max(p.Size, 0),
			StorageClass:  class,
			UploadDate:    now,
			UploadedBy:    p.UploadedBy,
			Comment:       p.Comment,
			Checksum:      p.Checksum,
			IsActive:      true,
		}
		if len(p.Metadata) > 0 {
			added.Metadata = maps.Clone(p.Metadata)
		}
		f.Versions = append(f.Versions, added)
		f.activate(len(f.Versions) - 1)
		if p.MimeType != "" {
			f.MimeType = p.MimeType
		}
		f.UpdatedAt = now
		return f.Validate()
	})
	if err != nil {
		return nil, err
	}

	m.record(ctx, tenant, billing.ActivityVersionUploaded, billing.Details{
		"file_id":        f.ID,
		"version_id":     added.VersionID,
		"version_number": added.VersionNumber,
		"size_bytes":     added.FileSize,
		"storage_class":  string(added.StorageClass),
	})
	return f, nil
}

// RestoreVersion makes an existing version active again. No version number
// is minted; only the active pointer moves.
func (m *Manager) RestoreVersion(ctx context.Context, tenant, fileID, versionID string) (*File, error) {
	var from, to int
	f, err := m.mutate(ctx, tenant, fileID, func(f *File) error {
		i := f.indexOf(versionID)
		if i < 0 {
			return ErrVersionNotFound
		}
		from = f.CurrentVersionNumber
		to = f.Versions[i].VersionNumber
		f.activate(i)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.record(ctx, tenant, billing.ActivityVersionRestored, billing.Details{
		"file_id":             f.ID,
		"version_id":          versionID,
		"from_version_number": from,
		"to_version_number":   to,
	})
	return f, nil
}

// DeleteVersion removes an inactive version and returns it so the caller can
// release its blob. The only version and the active version cannot be deleted.
func (m *Manager) DeleteVersion(ctx context.Context, tenant, fileID, versionID string) (*File, *Version, error) {
	var removed Version
	f, err := m.mutate(ctx, tenant, fileID, func(f *File) error {
		i := f.indexOf(versionID)
		switch {
		case i < 0:
			return ErrVersionNotFound
		case len(f.Versions) == 1:
			return ErrCannotDeleteOnlyVersion
		case f.Versions[i].IsActive:
			return ErrCannotDeleteActiveVersion
		}
		removed = f.Versions[i].clone()
		f.Versions = slices.Delete(f.Versions, i, i+1)
		f.syncMirror()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	m.record(ctx, tenant, billing.ActivityVersionDeleted, billing.Details{
		"file_id":        f.ID,
		"version_id":     removed.VersionID,
		"version_number": removed.VersionNumber,
		"size_bytes":     removed.FileSize,
		"storage_class":  string(removed.StorageClass),
	})
	return f, &removed, nil
}

// UpdateVersionMetadata merges a comment and metadata into a version.
func (m *Manager) UpdateVersionMetadata(ctx context.Context, tenant, fileID, versionID string, patch MetadataPatch) (*Version, error) {
	var updated Version
	_, err := m.mutate(ctx, tenant, fileID, func(f *File) error {
		i := f.indexOf(versionID)
		if i < 0 {
			return ErrVersionNotFound
		}
		v := &f.Versions[i]
		if patch.Comment != nil {
			v.Comment = *patch.Comment
		}
		for k, val := range patch.Metadata {
			if val == "" {
				delete(v.Metadata, k)
				continue
			}
			if v.Metadata == nil {
				v.Metadata = make(map[string]string, len(patch.Metadata))
			}
			v.Metadata[k] = val
		}
		updated = v.clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpgradeLegacy converts a legacy unversioned file into a versioned one.
// It is a no-op for files that are already versioned.
func (m *Manager) UpgradeLegacy(ctx context.Context, tenant, fileID string) (*File, error) {
	f, err := m.store.Get(ctx, tenant, fileID)
	if err != nil {
		return nil, err
	}
	if f.Shape() == ShapeVersioned {
		return f, nil
	}
	return m.mutate(ctx, tenant, fileID, func(*File) error { return nil })
}

// Retier reassigns storage classes atomically. fn is called for every
// version with the latest state; mirrored fields follow the active version.
func (m *Manager) Retier(ctx context.Context, tenant, fileID string, fn RetierFunc) (*File, []ClassChange, error) {
	var changes []ClassChange
	f, err := m.mutate(ctx, tenant, fileID, func(f *File) error {
		changes = changes[:0]
		for i := range f.Versions {
			v := &f.Versions[i]
			to, ok := fn(f, v.clone())
			if !ok || to == v.StorageClass {
				continue
			}
			if !to.Valid() {
				return errors.Join(pricing.ErrInvalidStorageClass, errors.New(string(to)))
			}
			changes = append(changes, ClassChange{
				VersionID:     v.VersionID,
				VersionNumber: v.VersionNumber,
				From:          v.StorageClass,
				To:            to,
				FileSize:      v.FileSize,
			})
			v.StorageClass = to
		}
		f.syncMirror()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	for _, c := range changes {
		m.record(ctx, tenant, billing.ActivityStorageClassChanged, billing.Details{
			"file_id":        f.ID,
			"version_id":     c.VersionID,
			"version_number": c.VersionNumber,
			"size_bytes":     c.FileSize,
			"from":           string(c.From),
			"to":             string(c.To),
		})
	}
	return f, changes, nil
}

// SetStorageClasses relabels the listed versions. Versions missing from the
// file are skipped; the returned changes list what was applied.
func (m *Manager) SetStorageClasses(ctx context.Context, tenant, fileID string, classes map[string]pricing.StorageClass) (*File, []ClassChange, error) {
	return m.Retier(ctx, tenant, fileID, func(_ *File, v Version) (pricing.StorageClass, bool) {
		c, ok := classes[v.VersionID]
		return c, ok
	})
}

// mutate upgrades legacy files, applies fn and validates the result, all
// inside the store's atomic section.
func (m *Manager) mutate(ctx context.Context, tenant, fileID string, fn MutateFunc) (*File, error) {
	return m.store.Mutate(ctx, tenant, fileID, func(f *File) error {
		now := m.now()
		Upgrade(f, now)
		if err := fn(f); err != nil {
			return err
		}
		f.UpdatedAt = now
		return f.Validate()
	})
}

// record notifies the ledger. Failures are logged and never undo the mutation.
func (m *Manager) record(ctx context.Context, tenant string, activity billing.Activity, details billing.Details) {
	if err := m.ledger.Record(ctx, tenant, activity, details); err != nil {
		m.logger.WarnContext(ctx, "failed to record billing activity",
			slog.String("tenant", tenant),
			slog.String("activity", string(activity)),
			slog.Any("error", err),
		)
	}
}
