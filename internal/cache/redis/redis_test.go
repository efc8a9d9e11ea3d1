package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/spigell/hh-analyst/internal/cache"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c := New(cache.Options{RedisAddr: srv.Addr(), DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

func TestCacheSetGet(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "postings:go", []byte(`[{"title":"Go"}]`), 0))

	got, err := c.Get(ctx, "postings:go")
	require.NoError(t, err)
	require.Equal(t, `[{"title":"Go"}]`, string(got))

	require.Equal(t, time.Minute, srv.TTL("postings:go"))

	srv.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "postings:go")
	require.ErrorIs(t, err, cache.ErrNotFound)
}

func TestCacheDeleteAndInvalidKey(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Hour))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrNotFound)

	require.ErrorIs(t, c.Set(ctx, " ", []byte("v"), 0), cache.ErrInvalidKey)
	_, err = c.Get(ctx, "")
	require.ErrorIs(t, err, cache.ErrInvalidKey)
}
