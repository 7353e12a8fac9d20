package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	t.Parallel()

	a := Key("3.1.1", `{"amount":"2.5"}`, "text")
	assert.Equal(t, a, Key("3.1.1", `{"amount":"2.5"}`, "text"))
	assert.NotEqual(t, a, Key("3.1.2", `{"amount":"2.5"}`, "text"))
	// Part boundaries matter.
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
	assert.Contains(t, a, "naac:advisory:")
	assert.Len(t, a, len("naac:advisory:")+64)
}

func TestMemoryGetSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "k")
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "k", "v", 0))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.Equal(t, 1, m.Len())
	assert.NoError(t, m.Close())
}

func TestMemoryExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", "v", time.Hour))
	_, err := m.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = m.Get(ctx, "k")
	require.ErrorIs(t, err, ErrMiss)
	assert.Zero(t, m.Len())
}

func TestNewRedisDisabled(t *testing.T) {
	t.Parallel()

	r, err := NewRedis(context.Background(), RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestNewRedisBadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedis(context.Background(), RedisConfig{URL: "http://not-redis"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}
