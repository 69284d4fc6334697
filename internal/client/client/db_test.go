package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitDatabase(t *testing.T) {
	ctx := context.Background()
	repos, err := InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.DB.Close() })

	require.NoError(t, repos.Metadata.Set(ctx, "k", []byte("v")))
	v, err := repos.Metadata.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)

	require.NoError(t, RunMigrations(ctx, repos.DB), "migrations must be idempotent")
}
