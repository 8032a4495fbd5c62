package websocket

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mselser95/updown-arb/internal/orderbook"
	"github.com/mselser95/updown-arb/pkg/types"
)

// Feed couples the market-channel connection with mirrored book state and
// exposes fresh depth snapshots for the active window's two tokens.
type Feed struct {
	manager *Manager
	state   *BookState
	logger  *zap.Logger
	wg      sync.WaitGroup
	mu      sync.Mutex
	market  *types.Market
}

// NewFeed creates a feed on top of a fresh manager built from cfg.
func NewFeed(cfg Config) *Feed {
	return &Feed{
		manager: New(cfg),
		state:   NewBookState(cfg.Logger),
		logger:  cfg.Logger,
	}
}

// Start connects and begins applying streamed messages.
func (f *Feed) Start() error {
	if err := f.manager.Start(); err != nil {
		return err
	}

	f.wg.Add(1)
	go f.consumeLoop()
	return nil
}

func (f *Feed) consumeLoop() {
	defer f.wg.Done()
	for msg := range f.manager.MessageChan() {
		f.state.Apply(msg)
	}
}

// SetMarket rotates the feed to a new window: the previous window's tokens
// are unsubscribed and dropped, the new ones subscribed and tracked.
func (f *Feed) SetMarket(ctx context.Context, market *types.Market) error {
	f.mu.Lock()
	previous := f.market
	f.market = market
	f.mu.Unlock()

	if previous != nil && previous.Slug != market.Slug {
		f.state.Untrack(previous.UpTokenID)
		f.state.Untrack(previous.DownTokenID)
		if err := f.manager.Unsubscribe([]string{previous.UpTokenID, previous.DownTokenID}); err != nil {
			f.logger.Warn("unsubscribe-previous-window-failed",
				zap.String("market-slug", previous.Slug),
				zap.Error(err))
		}
	}

	f.state.Track(market.UpTokenID, types.OutcomeUp)
	f.state.Track(market.DownTokenID, types.OutcomeDown)

	if err := f.manager.Subscribe([]string{market.UpTokenID, market.DownTokenID}); err != nil {
		return fmt.Errorf("subscribe window %s: %w", market.Slug, err)
	}

	f.logger.Info("feed-rotated-to-window", zap.String("market-slug", market.Slug))
	return nil
}

// Books returns both legs' current depth. ok is false until both tokens
// have received their initial snapshot.
func (f *Feed) Books() (up, down *orderbook.OutcomeBook, ok bool) {
	f.mu.Lock()
	market := f.market
	f.mu.Unlock()

	if market == nil {
		return nil, nil, false
	}

	up, upOK := f.state.Snapshot(market.UpTokenID)
	down, downOK := f.state.Snapshot(market.DownTokenID)
	if !upOK || !downOK {
		return nil, nil, false
	}
	return up, down, true
}

// Close shuts the connection down and waits for the consume loop.
func (f *Feed) Close() error {
	err := f.manager.Close()
	f.wg.Wait()
	return err
}
