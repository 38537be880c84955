package version

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/filevault/pkg/pricing"
)

// Identity is the pair used to detect uploads of the same logical file.
type Identity struct {
	OriginalName   string `json:"original_name"`
	ParentFolderID string `json:"parent_folder_id"`
}

// Shape tells whether a file carries a version history.
type Shape uint8

const (
	// ShapeUnversioned is a legacy file holding only flat content fields.
	ShapeUnversioned Shape = iota
	// ShapeVersioned is a file with an ordered version list.
	ShapeVersioned
)

func (s Shape) String() string {
	if s == ShapeVersioned {
		return "versioned"
	}
	return "unversioned"
}

// Version is one immutable content revision of a file.
type Version struct {
	UploadDate    time.Time            `json:"upload_date"`
	Metadata      map[string]string    `json:"metadata,omitempty"`
	VersionID     string               `json:"version_id"`
	BlobKey       string               `json:"blob_key"`
	StorageClass  pricing.StorageClass `json:"storage_class"`
	UploadedBy    string               `json:"uploaded_by"`
	Comment       string               `json:"comment,omitempty"`
	Checksum      string               `json:"checksum,omitempty"`
	FileSize      int64                `json:"file_size"`
	VersionNumber int                  `json:"version_number"`
	IsActive      bool                 `json:"is_active"`
}

func (v Version) clone() Version {
	if v.Metadata != nil {
		v.Metadata = maps.Clone(v.Metadata)
	}
	return v
}

// File is the aggregate root: file metadata plus its ordered version list.
//
// The mirrored fields (FileSize, StorageClass, BlobKey, UploadDate) always
// equal those of the active version on a versioned file, so readers never
// need to resolve the version list.
type File struct {
	UploadDate           time.Time            `json:"upload_date"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
	ID                   string               `json:"id"`
	TenantID             string               `json:"tenant_id"`
	OriginalName         string               `json:"original_name"`
	ParentFolderID       string               `json:"parent_folder_id"`
	BlobKey              string               `json:"blob_key"`
	StorageClass         pricing.StorageClass `json:"storage_class"`
	MimeType             string               `json:"mime_type,omitempty"`
	Versions             []Version            `json:"versions,omitempty"`
	FileSize             int64                `json:"file_size"`
	Revision             int64                `json:"revision"`
	CurrentVersionNumber int                  `json:"current_version_number"`
	TotalVersions        int                  `json:"total_versions"`
	VersioningEnabled    bool                 `json:"versioning_enabled"`
}

// Identity returns the identity pair of the file.
func (f *File) Identity() Identity {
	return Identity{OriginalName: f.OriginalName, ParentFolderID: f.ParentFolderID}
}

// Shape reports whether the file is a legacy unversioned record.
func (f *File) Shape() Shape {
	if f.VersioningEnabled && len(f.Versions) > 0 {
		return ShapeVersioned
	}
	return ShapeUnversioned
}

// Clone returns a deep copy of the file.
func (f *File) Clone() *File {
	if f == nil {
		return nil
	}
	c := *f
	if f.Versions != nil {
		c.Versions = make([]Version, len(f.Versions))
		for i, v := range f.Versions {
			c.Versions[i] = v.clone()
		}
	}
	return &c
}

// ActiveVersion returns a copy of the active version.
func (f *File) ActiveVersion() (Version, bool) {
	for _, v := range f.Versions {
		if v.IsActive {
			return v.clone(), true
		}
	}
	return Version{}, false
}

// Version returns a copy of the version with the given ID.
func (f *File) Version(versionID string) (Version, bool) {
	if i := f.indexOf(versionID); i >= 0 {
		return f.Versions[i].clone(), true
	}
	return Version{}, false
}

func (f *File) indexOf(versionID string) int {
	for i := range f.Versions {
		if f.Versions[i].VersionID == versionID {
			return i
		}
	}
	return -1
}

// nextVersionNumber returns max(existing)+1 so numbers are never reused,
// even after a restore moved the active pointer backwards.
func (f *File) nextVersionNumber() int {
	n := 0
	for _, v := range f.Versions {
		n = max(n, v.VersionNumber)
	}
	return n + 1
}

// activate makes the version at index i the only active one and resyncs
// the mirrored fields.
func (f *File) activate(i int) {
	for j := range f.Versions {
		f.Versions[j].IsActive = j == i
	}
	f.syncMirror()
}

// syncMirror copies the active version into the file-level fields.
func (f *File) syncMirror() {
	f.TotalVersions = len(f.Versions)
	for _, v := range f.Versions {
		if v.IsActive {
			f.CurrentVersionNumber = v.VersionNumber
			f.FileSize = v.FileSize
			f.StorageClass = v.StorageClass
			f.BlobKey = v.BlobKey
			f.UploadDate = v.UploadDate
			return
		}
	}
}

// Validate checks the aggregate invariants of a versioned file.
func (f *File) Validate() error {
	if len(f.Versions) == 0 {
		return violation("file %s has no versions", f.ID)
	}
	if f.TotalVersions != len(f.Versions) {
		return violation("total versions %d != %d", f.TotalVersions, len(f.Versions))
	}

	seen := make(map[int]struct{}, len(f.Versions))
	var active *Version
	for i := range f.Versions {
		v := &f.Versions[i]
		if _, dup := seen[v.VersionNumber]; dup {
			return violation("duplicate version number %d", v.VersionNumber)
		}
		seen[v.VersionNumber] = struct{}{}
		if v.IsActive {
			if active != nil {
				return violation("versions %d and %d are both active", active.VersionNumber, v.VersionNumber)
			}
			active = v
		}
	}
	if active == nil {
		return violation("file %s has no active version", f.ID)
	}
	if f.CurrentVersionNumber != active.VersionNumber {
		return violation("current version %d != active version %d", f.CurrentVersionNumber, active.VersionNumber)
	}
	if f.FileSize != active.FileSize ||
		f.StorageClass != active.StorageClass ||
		f.BlobKey != active.BlobKey ||
		!f.UploadDate.Equal(active.UploadDate) {
		return violation("mirrored fields differ from active version %d", active.VersionNumber)
	}
	return nil
}

func violation(format string, args ...any) error {
	return errors.Join(ErrInvariantViolation, fmt.Errorf(format, args...))
}

// Upgrade converts a legacy unversioned file into a versioned one by
// synthesizing an active version 1 from its flat fields. It reports whether
// anything changed; calling it on a versioned file is a no-op.
func Upgrade(f *File, now time.Time) bool {
	if f.Shape() == ShapeVersioned {
		return false
	}

	if len(f.Versions) == 0 {
		class := f.StorageClass
		if class == "" {
			class = pricing.ClassStandard
		}
		uploaded := f.UploadDate
		if uploaded.IsZero() {
			uploaded = f.CreatedAt
		}
		if uploaded.IsZero() {
			uploaded = now
		}
		f.Versions = []Version{{
			VersionID:     newID(),
			VersionNumber: 1,
			BlobKey:       f.BlobKey,
			FileSize:      f.FileSize,
			StorageClass:  class,
			UploadDate:    uploaded,
			UploadedBy:    f.TenantID,
			Comment:       "Initial version",
			IsActive:      true,
		}}
	}

	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.VersioningEnabled = true

	active := -1
	for i, v := range f.Versions {
		if v.IsActive {
			active = i
		}
	}
	if active < 0 {
		active = len(f.Versions) - 1
	}
	f.activate(active)
	return true
}

// NewFile returns an empty record for a file about to be created, with a
// fresh time-ordered ID. Store implementations use it from Upsert.
func NewFile(tenant string, ident Identity) *File {
	return &File{
		ID:             newID(),
		TenantID:       tenant,
		OriginalName:   ident.OriginalName,
		ParentFolderID: ident.ParentFolderID,
	}
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
