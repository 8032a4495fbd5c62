// Package discovery resolves the active btc-updown-15m market. Windows are
// 900 seconds wide and slugs embed the window start timestamp, so the
// primary strategy is arithmetic; the Gamma API scan is the fallback for
// clock skew or slug scheme drift.
package discovery

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/updown-arb/pkg/cache"
	"github.com/mselser95/updown-arb/pkg/types"
)

// slugPrefix is the fixed prefix of BTC 15-minute market slugs.
const slugPrefix = "btc-updown-15m-"

// computedWindowProbes is how many consecutive windows the computed-slug
// strategy tries, starting at the current one.
const computedWindowProbes = 7

// scanLimit bounds the Gamma API scan fallback.
const scanLimit = 500

var slugPattern = regexp.MustCompile(`^btc-updown-15m-(\d+)$`)

// ErrNoActiveMarket means every strategy came up empty.
var ErrNoActiveMarket = fmt.Errorf("no active btc-updown-15m market found")

// Config holds resolver configuration.
type Config struct {
	Client *Client
	Cache  cache.Cache
	Logger *zap.Logger
}

// Service resolves and caches the active market.
type Service struct {
	client *Client
	cache  cache.Cache
	logger *zap.Logger

	// now is swapped in tests to pin the window arithmetic.
	now func() time.Time
}

// New creates a discovery service.
func New(cfg *Config) *Service {
	return &Service{
		client: cfg.Client,
		cache:  cfg.Cache,
		logger: cfg.Logger,
		now:    time.Now,
	}
}

// ResolveActive returns the market for the current window. The cache is
// checked first; on a miss the computed-slug strategy runs, then the Gamma
// scan. The resolved market is cached until its window closes.
func (s *Service) ResolveActive(ctx context.Context) (*types.Market, error) {
	start := time.Now()
	defer func() {
		ResolveDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	currentSlug := SlugForTimestamp(s.now().Unix())
	if s.cache != nil {
		if cached, found := s.cache.Get(currentSlug); found {
			if market, ok := cached.(*types.Market); ok {
				return market, nil
			}
		}
	}

	market, err := s.tryComputedSlugs(ctx)
	if err != nil {
		s.logger.Debug("computed-slug-strategy-failed", zap.Error(err))
		market, err = s.tryGammaScan(ctx)
	}
	if err != nil {
		ResolveFailuresTotal.Inc()
		return nil, err
	}

	if s.cache != nil {
		ttl := time.Duration(market.EndTimestamp-s.now().Unix()) * time.Second
		if ttl > 0 {
			s.cache.Set(market.Slug, market, ttl)
		}
	}

	s.logger.Info("market-resolved",
		zap.String("market-slug", market.Slug),
		zap.String("market-id", market.ID),
		zap.String("question", market.Question),
		zap.String("time-remaining", market.TimeRemainingString()))
	return market, nil
}

// tryComputedSlugs probes the current window and the next few. A slug that
// exists but whose window already closed is skipped.
func (s *Service) tryComputedSlugs(ctx context.Context) (*types.Market, error) {
	now := s.now().Unix()

	for i := int64(0); i < computedWindowProbes; i++ {
		ts := now + i*types.MarketWindowSeconds
		windowStart := (ts / types.MarketWindowSeconds) * types.MarketWindowSeconds
		slug := slugPrefix + strconv.FormatInt(windowStart, 10)

		gamma, err := s.client.FetchMarketBySlug(ctx, slug)
		if err != nil {
			s.logger.Debug("slug-probe-failed", zap.String("market-slug", slug), zap.Error(err))
			continue
		}
		if gamma == nil {
			continue
		}
		if now >= windowStart+types.MarketWindowSeconds {
			s.logger.Debug("slug-window-closed", zap.String("market-slug", slug))
			continue
		}

		market, err := s.buildMarket(gamma, windowStart)
		if err != nil {
			s.logger.Warn("market-metadata-invalid", zap.String("market-slug", slug), zap.Error(err))
			continue
		}
		ResolutionsTotal.WithLabelValues("computed_slug").Inc()
		return market, nil
	}

	return nil, ErrNoActiveMarket
}

// tryGammaScan pulls a page of open markets and picks the earliest slug
// whose window is still open.
func (s *Service) tryGammaScan(ctx context.Context) (*types.Market, error) {
	markets, err := s.client.FetchOpenMarkets(ctx, scanLimit)
	if err != nil {
		return nil, fmt.Errorf("gamma scan: %w", err)
	}

	now := s.now().Unix()
	type candidate struct {
		ts     int64
		market GammaMarket
	}
	var candidates []candidate

	for _, m := range markets {
		matches := slugPattern.FindStringSubmatch(m.Slug)
		if matches == nil {
			continue
		}
		ts, err := strconv.ParseInt(matches[1], 10, 64)
		if err != nil {
			continue
		}
		if now < ts+types.MarketWindowSeconds {
			candidates = append(candidates, candidate{ts: ts, market: m})
		}
	}

	if len(candidates) == 0 {
		return nil, ErrNoActiveMarket
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ts < candidates[j].ts })

	market, err := s.buildMarket(&candidates[0].market, candidates[0].ts)
	if err != nil {
		return nil, err
	}
	ResolutionsTotal.WithLabelValues("gamma_scan").Inc()
	return market, nil
}

func (s *Service) buildMarket(gamma *GammaMarket, windowStart int64) (*types.Market, error) {
	tokenIDs, err := gamma.TokenIDs()
	if err != nil {
		return nil, err
	}
	if len(tokenIDs) != 2 {
		return nil, fmt.Errorf("expected 2 token IDs for %s, got %d", gamma.Slug, len(tokenIDs))
	}

	return &types.Market{
		Slug:           gamma.Slug,
		ID:             gamma.ID,
		UpTokenID:      tokenIDs[0],
		DownTokenID:    tokenIDs[1],
		StartTimestamp: windowStart,
		EndTimestamp:   windowStart + types.MarketWindowSeconds,
		Question:       gamma.Question,
	}, nil
}

// SlugForTimestamp returns the slug of the window containing ts.
func SlugForTimestamp(ts int64) string {
	windowStart := (ts / types.MarketWindowSeconds) * types.MarketWindowSeconds
	return slugPrefix + strconv.FormatInt(windowStart, 10)
}

// NextSlug returns the slug one window after the given one.
func NextSlug(slug string) (string, error) {
	matches := slugPattern.FindStringSubmatch(slug)
	if matches == nil {
		return "", fmt.Errorf("slug not in expected format: %s", slug)
	}
	ts, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return "", fmt.Errorf("parse slug timestamp: %w", err)
	}
	return slugPrefix + strconv.FormatInt(ts+types.MarketWindowSeconds, 10), nil
}
