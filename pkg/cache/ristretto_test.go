package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) *RistrettoCache {
	t.Helper()
	c, err := NewRistrettoCache(&RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	rc, ok := c.(*RistrettoCache)
	require.True(t, ok)
	return rc
}

func TestCacheSetGet(t *testing.T) {
	c := newTestCache(t)

	ok := c.Set("btc-updown-15m-1765301400", "market-data", time.Minute)
	require.True(t, ok)
	c.Wait()

	value, found := c.Get("btc-updown-15m-1765301400")
	require.True(t, found)
	assert.Equal(t, "market-data", value)
}

func TestCacheMiss(t *testing.T) {
	c := newTestCache(t)

	_, found := c.Get("missing-key")
	assert.False(t, found)
}

func TestCacheDelete(t *testing.T) {
	c := newTestCache(t)

	c.Set("key", "value", time.Minute)
	c.Wait()
	c.Delete("key")
	c.Wait()

	_, found := c.Get("key")
	assert.False(t, found)
}

func TestCacheTTLExpiry(t *testing.T) {
	c := newTestCache(t)

	c.Set("short-lived", "value", 10*time.Millisecond)
	c.Wait()
	time.Sleep(50 * time.Millisecond)

	_, found := c.Get("short-lived")
	assert.False(t, found)
}

func TestCacheClear(t *testing.T) {
	c := newTestCache(t)

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Wait()
	c.Clear()

	_, foundA := c.Get("a")
	_, foundB := c.Get("b")
	assert.False(t, foundA)
	assert.False(t, foundB)
}
