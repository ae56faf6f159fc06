package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New(Config{Addr: mr.Addr(), TTL: time.Hour}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestSetGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	vec := []float32{0.1, -0.5, 0.9}
	c.Set(ctx, "bge-m3", "什么动物会喵喵叫", vec)

	got, ok := c.Get(ctx, "bge-m3", "什么动物会喵喵叫")
	require.True(t, ok)
	assert.Equal(t, vec, got)
}

func TestMissOnUnknownText(t *testing.T) {
	c, _ := newTestCache(t)

	_, ok := c.Get(context.Background(), "bge-m3", "从未缓存过的查询")
	assert.False(t, ok)
}

func TestKeyIsModelScoped(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "bge-m3", "query", []float32{1})

	_, ok := c.Get(ctx, "other-model", "query")
	assert.False(t, ok, "同一文本在不同模型下不应命中")

	got, ok := c.Get(ctx, "bge-m3", "query")
	require.True(t, ok)
	assert.Equal(t, []float32{1}, got)
}

func TestExpiredEntryMisses(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "bge-m3", "query", []float32{1})
	mr.FastForward(2 * time.Hour)

	_, ok := c.Get(ctx, "bge-m3", "query")
	assert.False(t, ok)
}

func TestCorruptEntryDiscarded(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(Key("bge-m3", "query"), "not json at all"))

	_, ok := c.Get(ctx, "bge-m3", "query")
	assert.False(t, ok)
	// 损坏条目应被清除
	assert.False(t, mr.Exists(Key("bge-m3", "query")))
}

func TestRedisDownIsNonFatal(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	mr.Close()

	// 读写都不应 panic 或返回错误
	c.Set(ctx, "bge-m3", "query", []float32{1})
	_, ok := c.Get(ctx, "bge-m3", "query")
	assert.False(t, ok)
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	c.Set(ctx, "m", "t", []float32{1})
	_, ok := c.Get(ctx, "m", "t")
	assert.False(t, ok)
	assert.NoError(t, c.Close())
}
