package logger

import "log/slog"

// Config selects the log level, output format and optional Sentry sink.
type Config struct {
	Sentry SentryConfig
	// Format is "json" or "text".
	Format string `env:"LOG_FORMAT" envDefault:"json"`
	// Output is "stderr" or "stdout". Commands print results on stdout, so
	// logs default to stderr.
	Output string     `env:"LOG_OUTPUT" envDefault:"stderr"`
	Level  slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}
