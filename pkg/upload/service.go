package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/filevault/pkg/logger"
	"github.com/dmitrymomot/filevault/pkg/pricing"
	"github.com/dmitrymomot/filevault/pkg/storage"
	"github.com/dmitrymomot/filevault/pkg/version"
)

// BlobStore is the subset of storage.Storage used for uploads.
type BlobStore interface {
	Put(ctx context.Context, r io.Reader, size int64, opts ...storage.Option) (*storage.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string, opts ...storage.URLOption) (string, error)
}

// Request describes one upload.
type Request struct {
	Body     io.Reader
	Metadata map[string]string
	Tenant   string
	FileName string
	FolderID string

	UploadedBy string
	Comment    string
	// StorageClass overrides the recommendation when set.
	StorageClass pricing.StorageClass
	Size         int64
}

// Result is the outcome of a successful upload.
type Result struct {
	File           *version.File          `json:"file"`
	Version        version.Version        `json:"version"`
	Recommendation pricing.Recommendation `json:"recommendation"`
	ContentType    string                 `json:"content_type"`
}

// Service stores payloads and records them as file versions.
type Service struct {
	manager *version.Manager
	blobs   BlobStore
	opts    *options
}

// NewService creates an upload Service.
func NewService(manager *version.Manager, blobs BlobStore, opts ...Option) *Service {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Service{manager: manager, blobs: blobs, opts: o}
}

// Upload stores req.Body and appends it as the active version of the file
// identified by (FileName, FolderID). The first upload creates the file.
func (s *Service) Upload(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	ctx = logger.WithTenant(ctx, req.Tenant)
	log := s.opts.logger.With(slog.String("file_name", req.FileName))

	sniffed, body, err := storage.DetectMIME(req.Body)
	if err != nil {
		return nil, errors.Join(ErrStoreBlob, err)
	}
	contentType := storage.ResolveMIME(sniffed, req.FileName)

	rec := s.opts.recommender.Recommend(contentType, req.Size, req.FileName)
	class := req.StorageClass
	if class == "" {
		class = s.allowedClass(req.Tenant, rec.Class)
	}

	putOpts := []storage.Option{
		storage.WithTenant(req.Tenant),
		storage.WithPrefix(s.opts.prefix),
		storage.WithContentType(contentType),
		storage.WithStorageClass(class),
		storage.WithValidation(s.opts.rules...),
	}
	if len(req.Metadata) > 0 {
		putOpts = append(putOpts, storage.WithMetadata(req.Metadata))
	}

	obj, err := s.blobs.Put(ctx, body, req.Size, putOpts...)
	if err != nil {
		return nil, errors.Join(ErrStoreBlob, err)
	}

	f, err := s.manager.CreateOrNewVersion(ctx, req.Tenant,
		version.Identity{OriginalName: req.FileName, ParentFolderID: req.FolderID},
		version.Payload{
			BlobKey:      obj.Key,
			Size:         req.Size,
			StorageClass: class,
			MimeType:     contentType,
			Checksum:     obj.Checksum,
			UploadedBy:   req.UploadedBy,
			Comment:      req.Comment,
			Metadata:     req.Metadata,
		},
	)
	if err != nil {
		s.discard(ctx, obj.Key)
		return nil, errors.Join(ErrRecordVersion, err)
	}

	active, _ := f.ActiveVersion()
	log.InfoContext(logger.WithFile(ctx, f.ID), "version uploaded",
		slog.Int("version_number", active.VersionNumber),
		slog.String("storage_class", string(class)),
		slog.String("rule", rec.Rule),
		slog.Int64("size_bytes", req.Size),
	)

	return &Result{
		File:           f,
		Version:        active,
		Recommendation: rec,
		ContentType:    contentType,
	}, nil
}

// URL returns a download link for a version. An empty versionID selects the
// active version. The link names the download after the file.
func (s *Service) URL(ctx context.Context, tenant, fileID, versionID string, opts ...storage.URLOption) (string, error) {
	f, err := s.manager.File(ctx, tenant, fileID)
	if err != nil {
		return "", err
	}

	var v version.Version
	var ok bool
	if versionID == "" {
		v, ok = f.ActiveVersion()
	} else {
		v, ok = f.Version(versionID)
	}
	if !ok {
		return "", version.ErrVersionNotFound
	}
	if v.BlobKey == "" {
		return "", ErrNoBlob
	}

	opts = append([]storage.URLOption{storage.WithDownload(f.OriginalName)}, opts...)
	return s.blobs.URL(ctx, v.BlobKey, opts...)
}

// allowedClass downgrades class to STANDARD when the tenant's tier forbids it.
func (s *Service) allowedClass(tenant string, class pricing.StorageClass) pricing.StorageClass {
	if s.opts.policies == nil {
		return class
	}
	p, err := s.opts.policies.Policy(s.opts.policies.Resolve(tenant))
	if err != nil || p.Allows(class) {
		return class
	}
	return pricing.ClassStandard
}

// discard deletes a blob whose version could not be recorded. It runs even
// if ctx is already cancelled.
func (s *Service) discard(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.cleanup)
	defer cancel()

	if err := s.blobs.Delete(ctx, key); err != nil {
		s.opts.logger.WarnContext(ctx, "orphaned blob after failed upload",
			slog.String("blob_key", key),
			slog.Any("error", err),
		)
	}
}

func (r Request) validate() error {
	switch {
	case strings.TrimSpace(r.Tenant) == "":
		return errors.Join(ErrInvalidRequest, errors.New("tenant is required"))
	case strings.TrimSpace(r.FileName) == "":
		return errors.Join(ErrInvalidRequest, errors.New("file name is required"))
	case r.Body == nil:
		return errors.Join(ErrInvalidRequest, errors.New("body is required"))
	case r.Size < 0:
		return errors.Join(ErrInvalidRequest, errors.New("size must not be negative"))
	case r.StorageClass != "" && !r.StorageClass.Valid():
		return errors.Join(ErrInvalidRequest, pricing.ErrInvalidStorageClass)
	}
	return nil
}
