package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filevault/internal/config"
	"github.com/dmitrymomot/filevault/pkg/pricing"
)

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_CONN_URL", "postgres://localhost/filevault")
	t.Setenv("STORAGE_BUCKET", "vault")
	t.Setenv("TIERING_TARGET_CLASS", "STANDARD_IA")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RETENTION_SCHEDULE", config.ScheduleOff)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StorePostgres, cfg.Store)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, pricing.ClassStandardIA, cfg.Tiering.TargetClass)
	assert.Equal(t, 30, cfg.Tiering.DaysThreshold)
	assert.Equal(t, "30 4 * * *", cfg.Tiering.Cron())
	assert.Empty(t, cfg.Retention.Cron())
	assert.Equal(t, 10*time.Minute, cfg.OperationTimeout)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.True(t, cfg.BlobStoreEnabled())

	opts := cfg.Tiering.Options()
	assert.Equal(t, pricing.ClassStandardIA, opts.TargetClass)
	assert.False(t, opts.IncludeActive)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("VERSION_STORE", "sqlite")
	t.Setenv("TIERING_TARGET_CLASS", "COLD")
	t.Setenv("DATABASE_CONN_URL", "")

	_, err := config.Load()
	require.ErrorIs(t, err, config.ErrInvalid)
	assert.Contains(t, err.Error(), `unknown VERSION_STORE "sqlite"`)
	assert.Contains(t, err.Error(), "TIERING_TARGET_CLASS")
	assert.Contains(t, err.Error(), "postgres ledger")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *config.Config {
		return &config.Config{
			Store:   config.StoreMemory,
			Ledger:  config.LedgerLog,
			Tiering: config.Tiering{TargetClass: pricing.ClassGlacierIR, DaysThreshold: 30},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{name: "memory store needs no backends", mutate: func(*config.Config) {}},
		{name: "postgres store without url", mutate: func(c *config.Config) { c.Store = config.StorePostgres }, wantErr: true},
		{name: "redis store with url", mutate: func(c *config.Config) { c.Store = config.StoreRedis; c.Redis.URL = "redis://r:6379/0" }},
		{name: "redis store without url", mutate: func(c *config.Config) { c.Store = config.StoreRedis }, wantErr: true},
		{name: "unknown ledger", mutate: func(c *config.Config) { c.Ledger = "kafka" }, wantErr: true},
		{name: "negative threshold", mutate: func(c *config.Config) { c.Tiering.DaysThreshold = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, config.ErrInvalid)
				return
			}
			require.NoError(t, err)
		})
	}
}
