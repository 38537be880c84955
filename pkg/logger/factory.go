package logger

import (
	"io"
	"log/slog"
	"os"
)

// New creates a logger from cfg. When cfg.Sentry.DSN is set, warnings and
// errors are forwarded to Sentry as well. Extractors apply to every sink.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	var w io.Writer = os.Stderr
	if cfg.Output == "stdout" {
		w = os.Stdout
	}
	return slog.New(newHandler(w, cfg, extractors...))
}

func newHandler(w io.Writer, cfg Config, extractors ...ContextExtractor) slog.Handler {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var base slog.Handler
	if cfg.Format == "text" {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}

	if h, ok := sentryHandler(cfg.Sentry, base); ok {
		base = fanout{base, h}
	}
	return NewContextHandler(base, extractors...)
}
