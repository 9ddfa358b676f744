package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNonceStore(t *testing.T) (*NonceStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return NewNonceStore(c, ""), mr
}

func TestNonceStore_PutGetOverwrite(t *testing.T) {
	store, mr := newTestNonceStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "0xABC")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "0xABC", "first", time.Minute))
	require.NoError(t, store.Put(ctx, "0xabc", "second", time.Minute))

	nonce, ok, err := store.Get(ctx, "0xAbC")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", nonce)
	assert.True(t, mr.Exists("auth:nonce:0xabc"))
}

func TestNonceStore_ConsumeIsCompareAndDelete(t *testing.T) {
	store, _ := newTestNonceStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "0xabc", "current", time.Minute))

	ok, err := store.Consume(ctx, "0xabc", "stale")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Consume(ctx, "0xabc", "current")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Consume(ctx, "0xabc", "current")
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, err := store.Get(ctx, "0xabc")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNonceStore_Expiry(t *testing.T) {
	store, mr := newTestNonceStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "0xabc", "n", time.Minute))

	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Get(ctx, "0xabc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNonceStore_ClientErrors(t *testing.T) {
	store, mr := newTestNonceStore(t)
	mr.Close()
	ctx := context.Background()

	assert.Error(t, store.Put(ctx, "0xabc", "n", time.Minute))
	_, _, err := store.Get(ctx, "0xabc")
	assert.Error(t, err)
	_, err = store.Consume(ctx, "0xabc", "n")
	assert.Error(t, err)
}
