package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/updown-arb/internal/arbitrage"
	"github.com/mselser95/updown-arb/internal/discovery"
	"github.com/mselser95/updown-arb/internal/orderbook"
	"github.com/mselser95/updown-arb/pkg/types"
)

// scanLoop runs one detection cycle per tick. A cycle that executes an
// opportunity blocks the loop until the execution reaches a terminal
// outcome; overlapping executions are not allowed.
func (a *App) scanLoop() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.scanCycle(a.ctx)
		}
	}
}

func (a *App) scanCycle(ctx context.Context) {
	market, err := a.resolveMarket(ctx)
	if err != nil {
		if errors.Is(err, discovery.ErrNoActiveMarket) {
			a.logger.Warn("no-active-market")
		} else if !errors.Is(err, context.Canceled) {
			a.logger.Warn("market-resolution-failed", zap.Error(err))
		}
		return
	}

	upBook, downBook, err := a.fetchBooks(ctx, market)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			a.logger.Warn("book-fetch-failed",
				zap.String("market-slug", market.Slug),
				zap.Error(err))
		}
		return
	}

	opp, diag, err := a.detector.TryDetect(market, upBook, downBook)
	if err != nil {
		a.logger.Warn("scan-cycle-aborted",
			zap.String("market-slug", market.Slug),
			zap.Error(err))
		return
	}
	if opp == nil {
		a.logger.Debug("no-opportunity",
			zap.String("market-slug", market.Slug),
			zap.String("time-remaining", market.TimeRemainingString()),
			zap.String("diagnosis", diag.String()))
		return
	}

	a.executeOpportunity(ctx, opp)
}

// resolveMarket returns the active window's market, rotating feed
// subscriptions when the window changed since the last cycle.
func (a *App) resolveMarket(ctx context.Context) (*types.Market, error) {
	market, err := a.discoveryService.ResolveActive(ctx)
	if err != nil {
		return nil, err
	}

	previous := a.CurrentMarket()
	if previous == nil || previous.Slug != market.Slug {
		if previous != nil {
			a.logger.Info("window-closed",
				zap.String("market-slug", previous.Slug),
				zap.Any("outcome-counts", a.tracker.OutcomeCounts()))
		}
		a.logger.Info("window-active",
			zap.String("market-slug", market.Slug),
			zap.String("question", market.Question),
			zap.String("time-remaining", market.TimeRemainingString()))
		a.setMarket(market)

		if a.feed != nil {
			if err := a.feed.SetMarket(ctx, market); err != nil {
				a.logger.Warn("feed-rotation-failed",
					zap.String("market-slug", market.Slug),
					zap.Error(err))
			}
		}
	}

	return market, nil
}

// fetchBooks returns both legs' depth, from the feed when it is synced,
// otherwise via two concurrent REST fetches.
func (a *App) fetchBooks(ctx context.Context, market *types.Market) (*orderbook.OutcomeBook, *orderbook.OutcomeBook, error) {
	if a.feed != nil {
		if up, down, ok := a.feed.Books(); ok {
			return up, down, nil
		}
	}

	var (
		wg       sync.WaitGroup
		upBook   *orderbook.OutcomeBook
		downBook *orderbook.OutcomeBook
		upErr    error
		downErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		upBook, upErr = a.bookSource.FetchBook(ctx, market.UpTokenID, types.OutcomeUp)
	}()
	go func() {
		defer wg.Done()
		downBook, downErr = a.bookSource.FetchBook(ctx, market.DownTokenID, types.OutcomeDown)
	}()
	wg.Wait()

	if upErr != nil {
		return nil, nil, upErr
	}
	if downErr != nil {
		return nil, nil, downErr
	}
	return upBook, downBook, nil
}

func (a *App) executeOpportunity(ctx context.Context, opp *arbitrage.Opportunity) {
	if err := a.storage.StoreOpportunity(ctx, opp); err != nil {
		a.logger.Warn("store-opportunity-failed",
			zap.String("opportunity-id", opp.ID),
			zap.Error(err))
	}

	result := a.engine.Execute(ctx, opp)

	if err := a.storage.StoreResult(ctx, result); err != nil {
		a.logger.Warn("store-result-failed",
			zap.String("opportunity-id", opp.ID),
			zap.Error(err))
	}
}
