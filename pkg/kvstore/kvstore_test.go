package kvstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ratio1/poststats_go/pkg/kvstore"
)

func exerciseStorage(t *testing.T, s kvstore.Storage) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.GetItem(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetItem(ctx, "stats-cache-v1", `{"a":{"views":1,"likes":2}}`))
	require.NoError(t, s.SetItem(ctx, "liked:a", "1"))
	require.NoError(t, s.SetItem(ctx, "liked:a", "1"))

	value, ok, err := s.GetItem(ctx, "stats-cache-v1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":{"views":1,"likes":2}}`, value)

	value, ok, err = s.GetItem(ctx, "liked:a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", value)
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, kvstore.NewMemory())
}

func TestMemoryQuota(t *testing.T) {
	m := kvstore.NewMemory(kvstore.WithQuota(10))
	ctx := context.Background()

	require.NoError(t, m.SetItem(ctx, "k", "12345"))
	err := m.SetItem(ctx, "other", "123456789")
	assert.ErrorIs(t, err, kvstore.ErrQuotaExceeded)

	// Overwriting an existing key only counts the delta.
	require.NoError(t, m.SetItem(ctx, "k", "123456789"))
	assert.Equal(t, map[string]string{"k": "123456789"}, m.Snapshot())
	assert.Equal(t, 3, m.SetCalls())
}

func TestMemoryInjectedErrors(t *testing.T) {
	boom := errors.New("boom")
	m := kvstore.NewMemory(kvstore.WithGetError(boom), kvstore.WithSetError(boom))
	_, _, err := m.GetItem(context.Background(), "k")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, m.SetItem(context.Background(), "k", "v"), boom)
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	f, err := kvstore.OpenFile(path)
	require.NoError(t, err)
	exerciseStorage(t, f)

	reopened, err := kvstore.OpenFile(path)
	require.NoError(t, err)
	value, ok, err := reopened.GetItem(context.Background(), "liked:a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", value)
}

func TestFileStorageCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	f, err := kvstore.OpenFile(path)
	require.NoError(t, err)
	_, _, err = f.GetItem(context.Background(), "k")
	assert.Error(t, err)
}

func TestSQLiteStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := kvstore.OpenSQLite(path)
	require.NoError(t, err)
	exerciseStorage(t, s)
	require.NoError(t, s.Close())

	reopened, err := kvstore.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	_, ok, err := reopened.GetItem(context.Background(), "stats-cache-v1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewFromEnv(t *testing.T) {
	t.Run("default memory", func(t *testing.T) {
		t.Setenv("POSTSTATS_STORAGE", "")
		s, backend, err := kvstore.NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, kvstore.BackendMemory, backend)
		assert.IsType(t, &kvstore.Memory{}, s)
	})

	t.Run("file", func(t *testing.T) {
		t.Setenv("POSTSTATS_STORAGE", "file")
		t.Setenv("POSTSTATS_STORAGE_PATH", filepath.Join(t.TempDir(), "s.json"))
		_, backend, err := kvstore.NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, kvstore.BackendFile, backend)
	})

	t.Run("sqlite requires path", func(t *testing.T) {
		t.Setenv("POSTSTATS_STORAGE", "sqlite")
		t.Setenv("POSTSTATS_STORAGE_PATH", "")
		_, _, err := kvstore.NewFromEnv()
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("POSTSTATS_STORAGE", "redis")
		_, _, err := kvstore.NewFromEnv()
		assert.Error(t, err)
	})
}
