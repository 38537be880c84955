package job

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_NilPool(t *testing.T) {
	t.Parallel()

	_, err := NewManager(nil)
	require.ErrorIs(t, err, ErrPoolRequired)

	_, err = NewEnqueuer(nil, nil)
	require.ErrorIs(t, err, ErrPoolRequired)
}

func TestParseCronSchedule(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 3, 10, 14, 20, 0, 0, time.UTC)

	tests := []struct {
		expr string
		want time.Time
	}{
		{"0 3 * * *", time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC)},
		{"*/15 * * * *", time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)},
		{"30 14 * * *", time.Date(2026, 3, 11, 14, 30, 0, 0, time.UTC)},
		{"@hourly", time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()

			s, err := parseCronSchedule(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Next(from))
		})
	}

	for _, bad := range []string{"", "* * *", "61 * * * *", "0 0 0 * * *"} {
		_, err := parseCronSchedule(bad)
		assert.Error(t, err, bad)
	}
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	t.Run("payload and options", func(t *testing.T) {
		t.Parallel()

		args, opts, err := buildArgs("retention.cleanup_tenant", tenantPayload{Tenant: "acme"},
			InQueue("sweeps"),
			MaxAttempts(3),
			UniqueFor(time.Hour),
			UniqueKey("acme"),
		)
		require.NoError(t, err)
		assert.Equal(t, "retention.cleanup_tenant", args.TaskName)
		assert.Equal(t, "acme", args.UniqueKey)
		assert.JSONEq(t, `{"tenant":"acme"}`, string(args.Payload))
		assert.Equal(t, "sweeps", opts.Queue)
		assert.Equal(t, 3, opts.MaxAttempts)
		assert.True(t, opts.UniqueOpts.ByArgs)
		assert.Equal(t, time.Hour, opts.UniqueOpts.ByPeriod)
	})

	t.Run("nil payload", func(t *testing.T) {
		t.Parallel()

		args, opts, err := buildArgs("sweep", nil)
		require.NoError(t, err)
		assert.Empty(t, args.Payload)
		assert.Empty(t, args.UniqueKey)
		assert.True(t, opts.ScheduledAt.IsZero())
		assert.False(t, opts.UniqueOpts.ByArgs)
	})

	t.Run("scheduled", func(t *testing.T) {
		t.Parallel()

		_, opts, err := buildArgs("sweep", nil, ScheduledIn(time.Hour))
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), opts.ScheduledAt, time.Minute)
	})

	t.Run("unmarshalable payload", func(t *testing.T) {
		t.Parallel()

		_, _, err := buildArgs("x", map[string]any{"ch": make(chan int)})
		require.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("kind", func(t *testing.T) {
		t.Parallel()

		raw, err := json.Marshal(taskArgs{TaskName: "x"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"task_name":"x"}`, string(raw))
		assert.Equal(t, "filevault:task", taskArgs{}.Kind())
	})
}
