package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/updown-arb/pkg/cache"
	"github.com/mselser95/updown-arb/pkg/types"
)

// fixedNow sits 100 seconds into the 1765301400 window.
const fixedNow int64 = 1765301500

func gammaJSON(slug, id string) string {
	return fmt.Sprintf(
		`{"id":%q,"slug":%q,"question":"Bitcoin Up or Down?","active":true,"closed":false,"clobTokenIds":"[\"token-up\",\"token-down\"]"}`,
		id, slug)
}

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := New(&Config{
		Client: NewClient(server.URL, zap.NewNop()),
		Logger: zap.NewNop(),
	})
	svc.now = func() time.Time { return time.Unix(fixedNow, 0) }
	return svc
}

func TestResolveActiveViaComputedSlug(t *testing.T) {
	var requestedSlugs []string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		slug := r.URL.Query().Get("slug")
		requestedSlugs = append(requestedSlugs, slug)
		if slug == "btc-updown-15m-1765301400" {
			fmt.Fprintf(w, "[%s]", gammaJSON(slug, "mkt-1"))
			return
		}
		w.Write([]byte("[]"))
	})

	market, err := svc.ResolveActive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "btc-updown-15m-1765301400", market.Slug)
	assert.Equal(t, "mkt-1", market.ID)
	assert.Equal(t, "token-up", market.UpTokenID)
	assert.Equal(t, "token-down", market.DownTokenID)
	assert.Equal(t, int64(1765301400), market.StartTimestamp)
	assert.Equal(t, int64(1765302300), market.EndTimestamp)
	require.NotEmpty(t, requestedSlugs)
	assert.Equal(t, "btc-updown-15m-1765301400", requestedSlugs[0],
		"current window probed first")
}

func TestResolveActiveFallsBackToScan(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("slug") != "" {
			w.Write([]byte("[]")) // every probe misses
			return
		}
		// Scan returns a closed window, an open one, and noise.
		fmt.Fprintf(w, "[%s,%s,%s]",
			gammaJSON("btc-updown-15m-1765300500", "mkt-old"),
			gammaJSON("btc-updown-15m-1765301400", "mkt-current"),
			gammaJSON("will-btc-hit-100k", "mkt-noise"))
	})

	market, err := svc.ResolveActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mkt-current", market.ID, "closed windows and non-matching slugs skipped")
}

func TestResolveActiveNoMarketAnywhere(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})

	_, err := svc.ResolveActive(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveMarket)
}

func TestResolveActiveUsesCache(t *testing.T) {
	var requests int
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprintf(w, "[%s]", gammaJSON("btc-updown-15m-1765301400", "mkt-1"))
	})

	c, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 100,
		MaxCost:     10,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	svc.cache = c

	first, err := svc.ResolveActive(context.Background())
	require.NoError(t, err)
	c.(*cache.RistrettoCache).Wait()

	second, err := svc.ResolveActive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Slug, second.Slug)
	assert.Equal(t, 1, requests, "second resolution served from cache")
}

func TestResolveActiveRejectsMalformedTokenIDs(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("slug") == "btc-updown-15m-1765301400" {
			w.Write([]byte(`[{"id":"mkt-1","slug":"btc-updown-15m-1765301400","clobTokenIds":"[\"only-one\"]"}]`))
			return
		}
		w.Write([]byte("[]"))
	})

	_, err := svc.ResolveActive(context.Background())
	assert.Error(t, err)
}

func TestSlugForTimestamp(t *testing.T) {
	assert.Equal(t, "btc-updown-15m-1765301400", SlugForTimestamp(1765301400))
	assert.Equal(t, "btc-updown-15m-1765301400", SlugForTimestamp(1765301500))
	assert.Equal(t, "btc-updown-15m-1765301400", SlugForTimestamp(1765302299))
	assert.Equal(t, "btc-updown-15m-1765302300", SlugForTimestamp(1765302300))
}

func TestNextSlug(t *testing.T) {
	next, err := NextSlug("btc-updown-15m-1765301400")
	require.NoError(t, err)
	assert.Equal(t, "btc-updown-15m-1765302300", next)

	_, err = NextSlug("not-a-market-slug")
	assert.Error(t, err)
}

func TestGammaMarketTokenIDs(t *testing.T) {
	m := &GammaMarket{Slug: "s", ClobTokenIDs: `["a","b"]`}
	ids, err := m.TokenIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	m = &GammaMarket{Slug: "s"}
	_, err = m.TokenIDs()
	assert.Error(t, err)

	m = &GammaMarket{Slug: "s", ClobTokenIDs: "not-json"}
	_, err = m.TokenIDs()
	assert.Error(t, err)
}

func TestMarketWindowMath(t *testing.T) {
	market := &types.Market{
		Slug:           "btc-updown-15m-1765301400",
		StartTimestamp: 1765301400,
		EndTimestamp:   1765302300,
	}
	assert.Equal(t, int64(900), market.EndTimestamp-market.StartTimestamp)
}
