package logger

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	tenantKey ctxKey = iota
	fileKey
)

// WithTenant stores the tenant ID in ctx for TenantExtractor.
func WithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantKey, tenant)
}

// WithFile stores the file ID in ctx for FileExtractor.
func WithFile(ctx context.Context, fileID string) context.Context {
	return context.WithValue(ctx, fileKey, fileID)
}

// TenantFromContext returns the tenant ID stored by WithTenant.
func TenantFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tenantKey).(string)
	return v, ok && v != ""
}

// FileFromContext returns the file ID stored by WithFile.
func FileFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(fileKey).(string)
	return v, ok && v != ""
}

// TenantExtractor adds a "tenant" attribute when ctx carries a tenant ID.
func TenantExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := TenantFromContext(ctx); ok {
			return slog.String("tenant", v), true
		}
		return slog.Attr{}, false
	}
}

// FileExtractor adds a "file_id" attribute when ctx carries a file ID.
func FileExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := FileFromContext(ctx); ok {
			return slog.String("file_id", v), true
		}
		return slog.Attr{}, false
	}
}

// DefaultExtractors returns the extractors every filevault process installs.
func DefaultExtractors() []ContextExtractor {
	return []ContextExtractor{TenantExtractor(), FileExtractor()}
}
