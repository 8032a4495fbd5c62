// Package app wires the components together and drives the scan loop.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mselser95/updown-arb/internal/arbitrage"
	"github.com/mselser95/updown-arb/internal/discovery"
	"github.com/mselser95/updown-arb/internal/execution"
	"github.com/mselser95/updown-arb/internal/position"
	"github.com/mselser95/updown-arb/internal/storage"
	"github.com/mselser95/updown-arb/pkg/config"
	"github.com/mselser95/updown-arb/pkg/healthprobe"
	"github.com/mselser95/updown-arb/pkg/httpserver"
	"github.com/mselser95/updown-arb/pkg/types"
	"github.com/mselser95/updown-arb/pkg/websocket"
)

// App is the main application orchestrator.
type App struct {
	cfg              *config.Config
	logger           *zap.Logger
	healthChecker    *healthprobe.HealthChecker
	httpServer       *httpserver.Server
	discoveryService *discovery.Service
	bookSource       BookSource
	feed             *websocket.Feed
	detector         *arbitrage.Detector
	engine           *execution.Engine
	tracker          *position.Tracker
	storage          storage.Storage

	marketMu sync.RWMutex
	market   *types.Market

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options holds application options.
type Options struct {
	// DryRunOverride forces dry-run mode on regardless of configuration.
	DryRunOverride bool
}

// CurrentMarket returns the market currently being scanned, if any.
func (a *App) CurrentMarket() *types.Market {
	a.marketMu.RLock()
	defer a.marketMu.RUnlock()
	return a.market
}

func (a *App) setMarket(market *types.Market) {
	a.marketMu.Lock()
	a.market = market
	a.marketMu.Unlock()
}
