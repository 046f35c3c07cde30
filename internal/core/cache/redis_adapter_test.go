package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) *RedisAdapter {
	t.Helper()

	mr := miniredis.RunT(t)
	adapter, err := NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })

	return adapter
}

func TestRedisAdapter_GetSet(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	err := adapter.Set(ctx, "cake:slug:chocolate-truffle", []byte(`{"name":"Chocolate Truffle"}`), 10*time.Second)
	assert.NoError(t, err)

	val, err := adapter.Get(ctx, "cake:slug:chocolate-truffle")
	assert.NoError(t, err)
	assert.Equal(t, []byte(`{"name":"Chocolate Truffle"}`), val)
}

func TestRedisAdapter_GetMiss(t *testing.T) {
	adapter := newTestAdapter(t)

	_, err := adapter.Get(context.Background(), "cake:slug:missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisAdapter_Delete(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "k", []byte("v"), 0))
	assert.NoError(t, adapter.Delete(ctx, "k"))

	_, err := adapter.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisAdapter_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	adapter, err := NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	defer adapter.Close()

	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "expiring", []byte("v"), 1*time.Second))

	_, err = adapter.Get(ctx, "expiring")
	assert.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = adapter.Get(ctx, "expiring")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisAdapter_Ping(t *testing.T) {
	adapter := newTestAdapter(t)
	assert.NoError(t, adapter.Ping(context.Background()))
}

func TestRedisAdapter_InvalidURL(t *testing.T) {
	_, err := NewRedisAdapter("invalid://url")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")
}
