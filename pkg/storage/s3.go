package storage

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/dmitrymomot/filevault/pkg/pricing"
)

// S3Storage implements Storage on S3-compatible object storage.
type S3Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	cfg       Config
}

// New creates an S3Storage.
func New(cfg Config) (*S3Storage, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := s3.New(s3.Options{}, func(o *s3.Options) {
		o.Region = cfg.Region
		o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		}
	})

	return &S3Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		cfg:       cfg,
	}, nil
}

// Put uploads the payload and returns its key, sniffed content type and
// SHA-256 checksum. S3 verifies the checksum on receipt.
func (s *S3Storage) Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*ObjectInfo, error) {
	o := &putOptions{storageClass: pricing.ClassStandard}
	for _, opt := range opts {
		opt(o)
	}
	if !o.storageClass.Valid() {
		return nil, fmt.Errorf("%w: %q", pricing.ErrInvalidStorageClass, o.storageClass)
	}

	contentType, body, err := DetectMIME(r)
	if err != nil {
		return nil, errors.Join(ErrReadFailed, err)
	}
	if o.contentType != "" {
		contentType = o.contentType
	}

	rules := o.rules
	if s.cfg.MaxUploadSize > 0 {
		rules = append(rules, MaxSize(s.cfg.MaxUploadSize))
	}
	if err := Validate(size, contentType, rules...); err != nil {
		return nil, err
	}

	sum, err := checksum(body)
	if err != nil {
		return nil, errors.Join(ErrReadFailed, err)
	}

	key := o.key
	if key == "" {
		key = buildKey(o.tenant, o.prefix, contentType)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:         aws.String(s.cfg.Bucket),
		Key:            aws.String(key),
		Body:           body,
		ContentLength:  aws.Int64(size),
		ContentType:    aws.String(contentType),
		StorageClass:   types.StorageClass(o.storageClass),
		ChecksumSHA256: aws.String(base64.StdEncoding.EncodeToString(sum)),
		Metadata:       o.metadata,
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrUploadFailed)
	}

	return &ObjectInfo{
		Key:          key,
		Size:         size,
		ContentType:  contentType,
		StorageClass: o.storageClass,
		Checksum:     hex.EncodeToString(sum),
	}, nil
}

// Get opens an object for reading.
func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrNotFound)
	}
	return out.Body, nil
}

// Head returns object metadata. Objects without an explicit class are STANDARD.
func (s *S3Storage) Head(ctx context.Context, key string) (*ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrNotFound)
	}

	class := pricing.StorageClass(out.StorageClass)
	if class == "" {
		class = pricing.ClassStandard
	}
	return &ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		StorageClass: class,
	}, nil
}

// Delete removes an object. A missing object counts as deleted.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		err = wrapS3Error(err, ErrDeleteFailed)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// SetStorageClass copies the object onto itself with a new storage class.
// Objects already in GLACIER or DEEP_ARCHIVE fail with ErrArchived until
// restored.
func (s *S3Storage) SetStorageClass(ctx context.Context, key string, class pricing.StorageClass) error {
	if !class.Valid() {
		return fmt.Errorf("%w: %q", pricing.ErrInvalidStorageClass, class)
	}
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(s.cfg.Bucket),
		Key:               aws.String(key),
		CopySource:        aws.String(copySource(s.cfg.Bucket, key)),
		StorageClass:      types.StorageClass(class),
		MetadataDirective: types.MetadataDirectiveCopy,
	})
	if err != nil {
		return wrapS3Error(err, ErrTransitionFailed)
	}
	return nil
}

// copySource returns the URL-encoded "bucket/key" CopyObject expects. Each
// segment is escaped so slashes keep separating them.
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

// URL returns a pre-signed GET URL.
func (s *S3Storage) URL(ctx context.Context, key string, opts ...URLOption) (string, error) {
	o := &urlOptions{expiry: s.cfg.URLExpiry}
	for _, opt := range opts {
		opt(o)
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}
	if o.downloadName != "" {
		input.ResponseContentDisposition = aws.String(fmt.Sprintf("attachment; filename=%q", o.downloadName))
	}

	req, err := s.presigner.PresignGetObject(ctx, input, func(po *s3.PresignOptions) {
		po.Expires = o.expiry
	})
	if err != nil {
		return "", wrapS3Error(err, ErrPresignFailed)
	}
	return req.URL, nil
}

func checksum(body io.ReadSeeker) ([]byte, error) {
	h := sha256.New()
	if _, err := io.Copy(h, body); err != nil {
		return nil, err
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// buildKey returns {tenant}/{prefix}/{uuid}.{ext}. UUIDv7 keeps keys of one
// tenant roughly ordered by upload time.
func buildKey(tenant, prefix, contentType string) string {
	parts := make([]string, 0, 3)
	if tenant != "" {
		parts = append(parts, sanitizePathSegment(tenant))
	}
	if prefix != "" {
		parts = append(parts, sanitizePathSegment(prefix))
	}

	ext := ExtFromMIME(contentType)
	if ext == "" {
		ext = ".bin"
	}
	parts = append(parts, uuid.Must(uuid.NewV7()).String()+ext)
	return strings.Join(parts, "/")
}

var pathSegmentRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizePathSegment strips traversal sequences and unsafe characters.
func sanitizePathSegment(segment string) string {
	segment = strings.ReplaceAll(segment, "..", "")
	segment = strings.Trim(segment, " /\\")
	segment = pathSegmentRegex.ReplaceAllString(segment, "_")
	return url.PathEscape(segment)
}

var _ Storage = (*S3Storage)(nil)
