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

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return NewCache(NewWithRedis(rdb), "indexa")
}

func TestCache_SetGet(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	type quote struct {
		Ticker string  `json:"ticker"`
		Price  float64 `json:"price"`
	}

	err := cache.Set(ctx, QuoteKey("PETR4"), quote{Ticker: "PETR4", Price: 38.42}, TTLQuote)
	require.NoError(t, err)

	var got quote
	found, err := cache.Get(ctx, QuoteKey("PETR4"), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "PETR4", got.Ticker)
	assert.InDelta(t, 38.42, got.Price, 1e-9)
}

func TestCache_GetMiss(t *testing.T) {
	cache := newTestCache(t)

	var dest map[string]interface{}
	found, err := cache.Get(context.Background(), ClosePriceKey("VALE3", "2026-08-27"), &dest)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Delete(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", 1.5, time.Minute))
	require.NoError(t, cache.Delete(ctx, "k"))

	var v float64
	found, err := cache.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_DisabledClientPassesThrough(t *testing.T) {
	cache := NewCache(&Client{enabled: false}, "indexa")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", 1, time.Minute))

	var v int
	found, err := cache.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}
