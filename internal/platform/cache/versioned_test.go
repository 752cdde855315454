package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newVersioned(t *testing.T) (*Versioned, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVersioned(client, "test", time.Minute), mr
}

func TestFetchJSONCachesUntilBump(t *testing.T) {
	c, mr := newVersioned(t)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]int{"n": calls}, nil
	}

	key, err := c.Key(ctx, "dashboard", "finance")
	require.NoError(t, err)
	require.Equal(t, "test:dashboard:finance:v1", key)

	var out map[string]int
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
	require.Equal(t, 1, calls)
	require.Equal(t, 1, out["n"])
	require.True(t, mr.Exists(key))

	require.NoError(t, c.Bump(ctx))
	key, err = c.Key(ctx, "dashboard", "finance")
	require.NoError(t, err)
	require.Equal(t, "test:dashboard:finance:v2", key)
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
	require.Equal(t, 2, out["n"])
}

func TestFetchJSONLoaderError(t *testing.T) {
	c, mr := newVersioned(t)
	boom := errors.New("backend down")
	var out map[string]int
	err := c.FetchJSON(context.Background(), "test:k", &out, func(context.Context) (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	require.False(t, mr.Exists("test:k"))
}

func TestNilClientPassesThrough(t *testing.T) {
	c := NewVersioned(nil, "", time.Minute)
	ctx := context.Background()
	key, err := c.Key(ctx, "a", "b")
	require.NoError(t, err)
	require.Equal(t, "adminsuite:a:b", key)

	var out string
	require.NoError(t, c.FetchJSON(ctx, key, &out, func(context.Context) (any, error) { return "hi", nil }))
	require.Equal(t, "hi", out)
	require.NoError(t, c.Bump(ctx))
}

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	mr.Close()
	_, err = New(context.Background(), mr.Addr())
	require.Error(t, err)
}
