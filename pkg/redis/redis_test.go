package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_RejectsURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want error
	}{
		{"", ErrEmptyConnectionURL},
		{"localhost:6379", ErrFailedToParseURL},
		{"http://localhost:6379", ErrFailedToParseURL},
		{"postgres://localhost:6379", ErrFailedToParseURL},
		{"redis://localhost:notaport", ErrFailedToParseURL},
		{"redis://localhost:6379/notanumber", ErrFailedToParseURL},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()

			client, err := Open(context.Background(), tt.url)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, client)
		})
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	t.Parallel()

	client, err := Connect(context.Background(), Config{URL: "memcached://localhost"})
	require.ErrorIs(t, err, ErrFailedToParseURL)
	require.Nil(t, client)
}

func TestConnect_Unreachable(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	client, err := Connect(ctx, Config{
		URL:           "redis://127.0.0.1:1/0",
		RetryAttempts: 5,
		RetryInterval: time.Second,
		Timeout:       50 * time.Millisecond,
	})
	require.ErrorIs(t, err, ErrConnectionFailed)
	require.Nil(t, client)
}

func TestConnect_SingleAttemptDoesNotWait(t *testing.T) {
	t.Parallel()

	start := time.Now()
	_, err := Open(context.Background(), "redis://127.0.0.1:1/0",
		WithRetry(1, time.Minute),
		WithTimeout(50*time.Millisecond),
	)
	require.ErrorIs(t, err, ErrConnectionFailed)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestOptions(t *testing.T) {
	t.Parallel()

	o := defaultOptions()
	WithPoolSize(0)(o)
	WithMinIdleConns(-1)(o)
	WithTimeout(0)(o)
	assert.Equal(t, 10, o.poolSize)
	assert.Equal(t, 2, o.minIdleConns)
	assert.Equal(t, 3*time.Second, o.timeout)

	WithPoolSize(20)(o)
	WithMinIdleConns(0)(o)
	WithRetry(7, 2*time.Second)(o)
	WithTimeout(time.Second)(o)
	assert.Equal(t, 20, o.poolSize)
	assert.Equal(t, 0, o.minIdleConns)
	assert.Equal(t, 7, o.retryAttempts)
	assert.Equal(t, 2*time.Second, o.retryInterval)
	assert.Equal(t, time.Second, o.timeout)
}

func TestWait(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, wait(ctx, time.Minute), context.Canceled)

	assert.NoError(t, wait(context.Background(), 10*time.Millisecond))
}

func TestHealthcheck_NilClient(t *testing.T) {
	t.Parallel()

	err := Healthcheck(nil)(context.Background())
	assert.ErrorIs(t, err, ErrHealthcheckFailed)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestShutdown(t *testing.T) {
	t.Parallel()

	var closed bool
	require.NoError(t, Shutdown(closerFunc(func() error {
		closed = true
		return nil
	}))(context.Background()))
	assert.True(t, closed)

	boom := errors.New("boom")
	err := Shutdown(closerFunc(func() error { return boom }))(context.Background())
	assert.ErrorIs(t, err, boom)
}
