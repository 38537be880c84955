package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()
		check := Healthcheck(pingerFunc(func(context.Context) error { return nil }))
		require.NoError(t, check(context.Background()))
	})

	t.Run("ping fails", func(t *testing.T) {
		t.Parallel()
		pingErr := errors.New("connection refused")
		check := Healthcheck(pingerFunc(func(context.Context) error { return pingErr }))

		err := check(context.Background())
		require.ErrorIs(t, err, ErrHealthcheckFailed)
		require.ErrorIs(t, err, pingErr)
	})

	t.Run("nil pinger", func(t *testing.T) {
		t.Parallel()
		require.ErrorIs(t, Healthcheck(nil)(context.Background()), ErrHealthcheckFailed)
	})
}

func TestConnect_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := Connect(context.Background(), Config{ConnectionString: "://not a url"})
	require.ErrorIs(t, err, ErrFailedToParseDBConfig)
}

func TestConnect_MissingConnectionString(t *testing.T) {
	t.Parallel()

	pool, err := Connect(context.Background(), Config{})
	require.ErrorIs(t, err, ErrMissingConnectionString)
	require.Nil(t, pool)
}
