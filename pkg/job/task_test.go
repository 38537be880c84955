package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tenantPayload struct {
	Tenant string `json:"tenant"`
}

type echoTask struct {
	got []string
}

func (t *echoTask) Name() string { return "echo" }

func (t *echoTask) Handle(_ context.Context, p tenantPayload) error {
	t.got = append(t.got, p.Tenant)
	return nil
}

type sweepTask struct {
	expr  string
	calls int
}

func (t *sweepTask) Name() string     { return "sweep" }
func (t *sweepTask) Schedule() string { return t.expr }
func (t *sweepTask) Handle(context.Context) error {
	t.calls++
	return nil
}

func TestWithTask(t *testing.T) {
	t.Parallel()

	task := &echoTask{}
	cfg := newConfig()
	WithTask(task)(cfg)

	exec, ok := cfg.registry.get("echo")
	require.True(t, ok)

	require.NoError(t, exec.Execute(context.Background(), json.RawMessage(`{"tenant":"acme"}`)))
	require.NoError(t, exec.Execute(context.Background(), nil))
	assert.Equal(t, []string{"acme", ""}, task.got)

	err := exec.Execute(context.Background(), json.RawMessage(`{"tenant":`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestWithScheduledTask(t *testing.T) {
	t.Parallel()

	t.Run("registers schedule and handler", func(t *testing.T) {
		t.Parallel()

		task := &sweepTask{expr: "0 3 * * *"}
		cfg := newConfig()
		WithScheduledTask(task)(cfg)

		require.Len(t, cfg.schedules, 1)
		assert.Equal(t, schedule{name: "sweep", expr: "0 3 * * *"}, cfg.schedules[0])

		exec, ok := cfg.registry.get("sweep")
		require.True(t, ok)
		require.NoError(t, exec.Execute(context.Background(), json.RawMessage(`{"ignored":true}`)))
		assert.Equal(t, 1, task.calls)
	})

	t.Run("empty schedule disables task", func(t *testing.T) {
		t.Parallel()

		cfg := newConfig()
		WithScheduledTask(&sweepTask{})(cfg)
		assert.Empty(t, cfg.schedules)
		assert.Empty(t, cfg.registry.names())
	})
}

func TestOptions(t *testing.T) {
	t.Parallel()

	cfg := newConfig()
	assert.Equal(t, 30*time.Minute, cfg.jobTimeout)

	WithQueue("sweeps", 2)(cfg)
	WithQueue("ignored", 0)(cfg)
	WithMaxWorkers(4)(cfg)
	WithMaxWorkers(-1)(cfg)
	WithJobTimeout(time.Hour)(cfg)
	WithRunOnStart()(cfg)

	assert.Equal(t, map[string]int{"sweeps": 2}, cfg.queues)
	assert.Equal(t, 4, cfg.maxWorkers)
	assert.Equal(t, time.Hour, cfg.jobTimeout)
	assert.True(t, cfg.runOnStart)
}

func TestRegistryNamesSorted(t *testing.T) {
	t.Parallel()

	r := newRegistry()
	r.register("b", periodicTask(func(context.Context) error { return nil }))
	r.register("a", periodicTask(func(context.Context) error { return errors.New("x") }))
	assert.Equal(t, []string{"a", "b"}, r.names())
}
