package kv

import (
	"context"
	"path/filepath"
	"testing"

	"minishop/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseRepository checks the contract every backend must honour.
func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	_, err := repo.Get(ctx, "ns-a", "cart_guest")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Set(ctx, "ns-a", "cart_guest", `[{"id":1}]`))
	got, err := repo.Get(ctx, "ns-a", "cart_guest")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, got)

	require.NoError(t, repo.Set(ctx, "ns-a", "cart_guest", `[]`))
	got, err = repo.Get(ctx, "ns-a", "cart_guest")
	require.NoError(t, err)
	assert.Equal(t, `[]`, got, "set must overwrite")

	_, err = repo.Get(ctx, "ns-b", "cart_guest")
	require.ErrorIs(t, err, domain.ErrNotFound, "namespaces must not leak into each other")

	require.NoError(t, repo.Delete(ctx, "ns-a", "cart_guest"))
	_, err = repo.Get(ctx, "ns-a", "cart_guest")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "ns-a", "never-set"), "deleting a missing key is a no-op")
	require.NoError(t, repo.Ping(ctx))
}

func TestMemoryRepository(t *testing.T) {
	repo := NewMemory()
	defer repo.Close()
	exerciseRepository(t, repo)
}

func TestSQLiteRepository(t *testing.T) {
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "minishop.db"))
	require.NoError(t, err)
	defer repo.Close()
	exerciseRepository(t, repo)
}

func TestSQLiteRepositorySurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minishop.db")
	ctx := context.Background()

	repo, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, repo.Set(ctx, "ns", "user", `{"id":"u1"}`))
	require.NoError(t, repo.Close())

	reopened, err := NewSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get(ctx, "ns", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"u1"}`, got)
}
