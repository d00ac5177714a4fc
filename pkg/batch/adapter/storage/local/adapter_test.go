package local_test

import (
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/storage"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/storage/local"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
)

func newConn(t *testing.T) storage.StorageConnection {
	t.Helper()
	conn, err := local.NewProvider().GetConnection(context.Background(), "archive", config.StorageConfig{Type: "local", BaseDir: t.TempDir()})
	require.NoError(t, err)
	return conn
}

func TestLocalAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	conn := newConn(t)

	require.NoError(t, conn.Upload(ctx, "", "runs/dt=2025-03-01/a.parquet", strings.NewReader("one"), "application/octet-stream"))
	require.NoError(t, conn.Upload(ctx, "", "runs/dt=2025-03-02/b.parquet", strings.NewReader("two"), "application/octet-stream"))
	require.NoError(t, conn.Upload(ctx, "", "other/c.txt", strings.NewReader("three"), "text/plain"))

	r, err := conn.Download(ctx, "", "runs/dt=2025-03-01/a.parquet")
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "one", string(body))

	var names []string
	require.NoError(t, conn.ListObjects(ctx, "", "runs/", func(name string) error {
		names = append(names, name)
		return nil
	}))
	sort.Strings(names)
	assert.Equal(t, []string{"runs/dt=2025-03-01/a.parquet", "runs/dt=2025-03-02/b.parquet"}, names)

	require.NoError(t, conn.DeleteObject(ctx, "", "runs/dt=2025-03-01/a.parquet"))
	require.NoError(t, conn.DeleteObject(ctx, "", "runs/dt=2025-03-01/a.parquet"), "deleting twice is fine")
	_, err = conn.Download(ctx, "", "runs/dt=2025-03-01/a.parquet")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestLocalAdapter_RejectsEscapingPaths(t *testing.T) {
	conn := newConn(t)
	err := conn.Upload(context.Background(), "", "../outside.txt", strings.NewReader("x"), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes base_dir")
}

func TestLocalAdapter_ListEmptyBucket(t *testing.T) {
	conn := newConn(t)
	called := false
	require.NoError(t, conn.ListObjects(context.Background(), "missing", "", func(string) error {
		called = true
		return nil
	}))
	assert.False(t, called)
}

func TestProvider_TypeMismatch(t *testing.T) {
	_, err := local.NewProvider().GetConnection(context.Background(), "archive", config.StorageConfig{Type: "gcs", BucketName: "b"})
	assert.Error(t, err)
}

func TestResolver_PicksProviderByType(t *testing.T) {
	cfg := config.StorageConfig{Type: "local", BaseDir: t.TempDir()}
	r := storage.NewResolver(cfg, local.NewProvider())
	conn, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "local", conn.Type())
	assert.Equal(t, storage.ArchiveConnectionName, conn.Name())
	require.NoError(t, r.CloseAll())

	_, err = storage.NewResolver(config.StorageConfig{Type: "s3"}, local.NewProvider()).Resolve(context.Background())
	assert.Error(t, err)
}
