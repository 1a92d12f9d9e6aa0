package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/folio/internal/adapters/driving/cli"
	"github.com/custodia-labs/folio/internal/core/domain"
)

func TestBootstrap_NeedSettings(t *testing.T) {
	dir := t.TempDir()

	svc, cleanup, err := bootstrap(context.Background(), cli.Options{ConfigDir: dir, Need: cli.NeedSettings})
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, svc.Settings)
	assert.Nil(t, svc.Chapters)
	assert.Nil(t, svc.Search)
	assert.Nil(t, svc.Revision)
	assert.NoDirExists(t, filepath.Join(dir, "data"))
}

func TestBootstrap_NeedStore(t *testing.T) {
	dir := t.TempDir()

	svc, cleanup, err := bootstrap(context.Background(), cli.Options{ConfigDir: dir, Need: cli.NeedStore})
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, svc.Chapters)
	assert.Nil(t, svc.Search)
	assert.DirExists(t, filepath.Join(dir, "data"))

	chapters, err := svc.Chapters.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, chapters)
}

func TestBootstrap_RevisionNeedsMaxIterations(t *testing.T) {
	dir := t.TempDir()

	_, _, err := bootstrap(context.Background(), cli.Options{ConfigDir: dir, Need: cli.NeedRevision})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "folio settings wizard")
}

func TestOpenVectorIndex(t *testing.T) {
	dataDir := t.TempDir()
	store, err := sqlite.NewStore(dataDir)
	require.NoError(t, err)
	defer store.Close()

	tests := []struct {
		name      string
		backend   domain.IndexBackend
		dsn       string
		wantErr   error
		wantClose bool
	}{
		{name: "sqlite", backend: domain.IndexBackendSQLite},
		{name: "memory", backend: domain.IndexBackendMemory},
		{name: "bolt", backend: domain.IndexBackendBolt, wantClose: true},
		{name: "postgres without dsn", backend: domain.IndexBackendPostgres, wantErr: domain.ErrInvalidConfig},
		{name: "qdrant without dsn", backend: domain.IndexBackendQdrant, wantErr: domain.ErrInvalidConfig},
		{name: "qdrant bad address", backend: domain.IndexBackendQdrant, dsn: "qdrant://:6334", wantErr: domain.ErrInvalidConfig},
		{name: "unknown", backend: domain.IndexBackend("faiss"), wantErr: domain.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := domain.DefaultSettings()
			settings.DataDir = dataDir
			settings.Index.Backend = tt.backend
			settings.Index.DSN = tt.dsn

			idx, closeFn, err := openVectorIndex(context.Background(), settings, store)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, idx)
			if tt.wantClose {
				require.NotNil(t, closeFn)
				assert.NoError(t, closeFn())
			} else {
				assert.Nil(t, closeFn)
			}
		})
	}
}

func TestClosers_ReverseOrder(t *testing.T) {
	var order []int
	var cl closers
	for i := range 3 {
		cl.add(func() error {
			order = append(order, i)
			return nil
		})
	}
	cl.add(func() error { return os.ErrClosed })

	cl.close()

	assert.Equal(t, []int{2, 1, 0}, order)
}
