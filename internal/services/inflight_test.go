package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/huangang/gymdesk/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr
}

func TestRedisInFlight(t *testing.T) {
	mr := newMiniRedis(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	guard := NewRedisInFlight(rdb)
	ctx := context.Background()

	ok, err := guard.Acquire(ctx, "broadcast", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists(inFlightKeyPrefix+"broadcast"))

	ok, err = guard.Acquire(ctx, "broadcast", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second request is rejected while the first runs")

	require.NoError(t, guard.Release(ctx, "broadcast"))
	ok, err = guard.Acquire(ctx, "broadcast", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = guard.Acquire(ctx, "broadcast", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "an abandoned key expires")
}

func TestRedisInFlight_Unavailable(t *testing.T) {
	mr := newMiniRedis(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	_, err := NewRedisInFlight(rdb).Acquire(context.Background(), "k", time.Second)
	assert.Error(t, err)
}

func TestMemoryInFlight(t *testing.T) {
	guard := NewMemoryInFlight()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := guard.Acquire(ctx, "monthly", time.Minute)
	assert.True(t, ok)
	ok, _ = guard.Acquire(ctx, "monthly", time.Minute)
	assert.False(t, ok)

	now = now.Add(61 * time.Second)
	ok, _ = guard.Acquire(ctx, "monthly", time.Minute)
	assert.True(t, ok)

	require.NoError(t, guard.Release(ctx, "monthly"))
	ok, _ = guard.Acquire(ctx, "monthly", time.Minute)
	assert.True(t, ok)
}

func TestNewInFlight(t *testing.T) {
	_, isMemory := NewInFlight(&config.RedisConfig{Enabled: false}).(*MemoryInFlight)
	assert.True(t, isMemory)

	mr := newMiniRedis(t)
	_, isRedis := NewInFlight(&config.RedisConfig{Enabled: true, Addr: mr.Addr()}).(*RedisInFlight)
	assert.True(t, isRedis)

	addr := mr.Addr()
	mr.Close()
	_, isMemory = NewInFlight(&config.RedisConfig{Enabled: true, Addr: addr}).(*MemoryInFlight)
	assert.True(t, isMemory, "falls back when Redis does not answer")
}
