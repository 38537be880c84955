package storage

import (
	"context"
	"io"
	"time"

	"github.com/dmitrymomot/filevault/pkg/pricing"
)

// Storage is a blob store holding version payloads.
type Storage interface {
	// Put uploads size bytes from r. The content type is sniffed unless
	// WithContentType is given.
	Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*ObjectInfo, error)

	// Get opens an object. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Head returns object metadata without downloading it.
	Head(ctx context.Context, key string) (*ObjectInfo, error)

	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// SetStorageClass moves an object to another storage class in place.
	SetStorageClass(ctx context.Context, key string, class pricing.StorageClass) error

	// URL returns a pre-signed download URL.
	URL(ctx context.Context, key string, opts ...URLOption) (string, error)
}

// Config holds S3-compatible storage settings.
type Config struct {
	Bucket    string `env:"STORAGE_BUCKET"`
	AccessKey string `env:"STORAGE_ACCESS_KEY"`
	SecretKey string `env:"STORAGE_SECRET_KEY"`

	// Endpoint overrides the AWS endpoint, e.g. for MinIO.
	Endpoint string `env:"STORAGE_ENDPOINT"`
	Region   string `env:"STORAGE_REGION" envDefault:"us-east-1"`

	// PathStyle is required by most S3-compatible servers.
	PathStyle bool `env:"STORAGE_PATH_STYLE" envDefault:"false"`

	// MaxUploadSize rejects larger payloads before they reach S3. Zero disables it.
	MaxUploadSize int64 `env:"STORAGE_MAX_UPLOAD_SIZE" envDefault:"5368709120"`

	// URLExpiry is the default lifetime of pre-signed URLs.
	URLExpiry time.Duration `env:"STORAGE_URL_EXPIRY" envDefault:"15m"`
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	ContentType  string
	StorageClass pricing.StorageClass
	// Checksum is the hex SHA-256 of the payload. Set by Put only.
	Checksum string
	Size     int64
}

// Default configuration values.
const (
	DefaultRegion    = "us-east-1"
	DefaultURLExpiry = 15 * time.Minute
)

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.URLExpiry <= 0 {
		c.URLExpiry = DefaultURLExpiry
	}
}

func (c *Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}
