// Package logger builds the process logger: log/slog with context
// extractors and optional Sentry forwarding.
//
// # Usage
//
//	log := logger.New(cfg.Log, logger.DefaultExtractors()...)
//
//	ctx = logger.WithTenant(ctx, tenantID)
//	ctx = logger.WithFile(ctx, fileID)
//	log.InfoContext(ctx, "version deleted")
//	// {"level":"INFO","msg":"version deleted","tenant":"acme","file_id":"0190..."}
//
// # Configuration
//
//	LOG_LEVEL          - debug, info, warn or error (default: info)
//	LOG_FORMAT         - json or text (default: json)
//	LOG_OUTPUT         - stderr or stdout (default: stderr)
//	SENTRY_DSN         - enables Sentry when set
//	SENTRY_ENVIRONMENT - Sentry environment (default: production)
//	SENTRY_RELEASE     - release tag attached to events
//	SENTRY_MIN_LEVEL   - lowest level stored as a Sentry log (default: warn)
//
// Errors always become Sentry issues. If the SDK fails to initialize, the
// logger keeps only the local sink.
//
// # Context Extractors
//
// A [ContextExtractor] turns a context value into a log attribute on every
// call. [ContextHandler] applies extractors to any slog.Handler, so they
// reach the local sink and Sentry alike.
//
// Library packages take a *slog.Logger through options and default to
// [NewNope].
package logger
