//go:build integration

package storage_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filevault/pkg/pricing"
	"github.com/dmitrymomot/filevault/pkg/storage"
)

// Defaults match the MinIO service in docker-compose.yml.
func newTestStorage(t *testing.T) *storage.S3Storage {
	t.Helper()

	endpoint := os.Getenv("STORAGE_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}

	s, err := storage.New(storage.Config{
		Endpoint:  endpoint,
		AccessKey: envOr("STORAGE_ACCESS_KEY", "admin"),
		SecretKey: envOr("STORAGE_SECRET_KEY", "admin123"),
		Bucket:    envOr("STORAGE_BUCKET", "filevault"),
		PathStyle: true,
	})
	require.NoError(t, err)
	return s
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func TestS3Integration_Lifecycle(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	ctx := context.Background()

	data := []byte("version payload for integration test")
	info, err := s.Put(ctx, bytes.NewReader(data), int64(len(data)),
		storage.WithTenant("it-tenant"),
		storage.WithPrefix("versions"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Delete(ctx, info.Key) })

	require.True(t, strings.HasPrefix(info.Key, "it-tenant/versions/"))
	require.Equal(t, "text/plain", info.ContentType)

	rc, err := s.Get(ctx, info.Key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	require.Equal(t, data, got)

	head, err := s.Head(ctx, info.Key)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), head.Size)
	require.Equal(t, pricing.ClassStandard, head.StorageClass)

	require.NoError(t, s.SetStorageClass(ctx, info.Key, pricing.ClassStandardIA))

	link, err := s.URL(ctx, info.Key, storage.WithDownload("notes.txt"))
	require.NoError(t, err)
	resp, err := http.Get(link)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Delete(ctx, info.Key))
	_, err = s.Get(ctx, info.Key)
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, s.Delete(ctx, info.Key))
}
