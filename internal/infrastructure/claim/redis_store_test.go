package claim

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, token string) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, token), mr
}

func TestClaimIsExclusive(t *testing.T) {
	store, mr := newTestStore(t, "run-a")
	other := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "run-b")
	ctx := context.Background()

	ok, err := store.Claim(ctx, "abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = other.Claim(ctx, "abc", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	val, err := mr.Get(keyPrefix + "abc")
	require.NoError(t, err)
	assert.Equal(t, "run-a", val)
}

func TestClaimExpires(t *testing.T) {
	store, mr := newTestStore(t, "run-a")
	ctx := context.Background()

	ok, err := store.Claim(ctx, "abc", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = store.Claim(ctx, "abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseOnlyOwnClaim(t *testing.T) {
	store, mr := newTestStore(t, "run-a")
	other := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "run-b")
	ctx := context.Background()

	_, err := store.Claim(ctx, "abc", time.Minute)
	require.NoError(t, err)

	require.NoError(t, other.Release(ctx, "abc"))
	assert.True(t, mr.Exists(keyPrefix+"abc"))

	require.NoError(t, store.Release(ctx, "abc"))
	assert.False(t, mr.Exists(keyPrefix+"abc"))
}

func TestClaimConnectionError(t *testing.T) {
	store, mr := newTestStore(t, "run-a")
	mr.Close()

	_, err := store.Claim(context.Background(), "abc", time.Minute)
	assert.Error(t, err)
}
