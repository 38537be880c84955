package storage

import (
	"maps"

	"github.com/dmitrymomot/filevault/pkg/pricing"
)

// Option configures Put.
type Option func(*putOptions)

type putOptions struct {
	metadata     map[string]string
	key          string
	prefix       string
	tenant       string
	contentType  string
	storageClass pricing.StorageClass
	rules        []ValidationRule
}

// WithKey sets an explicit key instead of a generated one.
func WithKey(key string) Option {
	return func(o *putOptions) {
		o.key = key
	}
}

// WithPrefix adds a path segment after the tenant.
// Example: WithPrefix("versions") results in "{tenant}/versions/{uuid}.{ext}".
func WithPrefix(prefix string) Option {
	return func(o *putOptions) {
		o.prefix = prefix
	}
}

// WithTenant makes the tenant ID the first path segment of the generated key.
func WithTenant(id string) Option {
	return func(o *putOptions) {
		o.tenant = id
	}
}

// WithContentType skips sniffing and uses ct.
func WithContentType(ct string) Option {
	return func(o *putOptions) {
		o.contentType = ct
	}
}

// WithStorageClass stores the object in class. Default: STANDARD.
func WithStorageClass(class pricing.StorageClass) Option {
	return func(o *putOptions) {
		o.storageClass = class
	}
}

// WithMetadata attaches user metadata to the object.
func WithMetadata(md map[string]string) Option {
	return func(o *putOptions) {
		if o.metadata == nil {
			o.metadata = make(map[string]string, len(md))
		}
		maps.Copy(o.metadata, md)
	}
}

// WithValidation rejects the upload before it starts if a rule fails.
func WithValidation(rules ...ValidationRule) Option {
	return func(o *putOptions) {
		o.rules = append(o.rules, rules...)
	}
}
