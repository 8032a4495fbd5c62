package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/updown-arb/internal/arbitrage"
	"github.com/mselser95/updown-arb/internal/clob"
	"github.com/mselser95/updown-arb/internal/discovery"
	"github.com/mselser95/updown-arb/internal/execution"
	"github.com/mselser95/updown-arb/internal/orderbook"
	"github.com/mselser95/updown-arb/internal/position"
	"github.com/mselser95/updown-arb/internal/storage"
	"github.com/mselser95/updown-arb/pkg/cache"
	"github.com/mselser95/updown-arb/pkg/config"
	"github.com/mselser95/updown-arb/pkg/healthprobe"
	"github.com/mselser95/updown-arb/pkg/httpserver"
	"github.com/mselser95/updown-arb/pkg/types"
	"github.com/mselser95/updown-arb/pkg/wallet"
	"github.com/mselser95/updown-arb/pkg/websocket"
)

// BookSource fetches depth snapshots for a token. Satisfied by the CLOB
// client; the scan loop prefers the WebSocket feed when it is synced.
type BookSource interface {
	FetchBook(ctx context.Context, tokenID string, outcome types.Outcome) (*orderbook.OutcomeBook, error)
}

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.DryRunOverride {
		cfg.DryRun = true
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	marketCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	discoveryService := setupDiscoveryService(cfg, logger, marketCache)

	clobClient, err := setupClobClient(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup clob client: %w", err)
	}

	tracker := position.NewTracker(logger)
	detector := arbitrage.NewDetector(logger, cfg.OrderSize, cfg.TargetPairCost, cfg.Cooldown)
	engine := setupEngine(cfg, logger, clobClient, tracker)

	appStorage, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	var feed *websocket.Feed
	if cfg.UseWebSocketFeed {
		feed = setupFeed(cfg, logger)
	}

	app := &App{
		cfg:              cfg,
		logger:           logger,
		healthChecker:    healthChecker,
		discoveryService: discoveryService,
		bookSource:       clobClient,
		feed:             feed,
		detector:         detector,
		engine:           engine,
		tracker:          tracker,
		storage:          appStorage,
		ctx:              ctx,
		cancel:           cancel,
	}

	app.httpServer = setupHTTPServer(cfg, logger, healthChecker, tracker, detector, engine, app.CurrentMarket)

	return app, nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupDiscoveryService(cfg *config.Config, logger *zap.Logger, marketCache cache.Cache) *discovery.Service {
	discoveryClient := discovery.NewClient(cfg.GammaBaseURL, logger)
	return discovery.New(&discovery.Config{
		Client: discoveryClient,
		Cache:  marketCache,
		Logger: logger,
	})
}

// setupClobClient builds the CLOB client. In dry-run mode no signer is
// attached; only unauthenticated endpoints are reachable, and the engine
// never submits.
func setupClobClient(cfg *config.Config, logger *zap.Logger) (*clob.Client, error) {
	var signer clob.OrderSigner
	if !cfg.DryRun {
		walletSigner, err := wallet.NewSigner(&wallet.Config{
			PrivateKey:    cfg.PrivateKey,
			ProxyAddress:  cfg.ProxyAddress,
			SignatureType: cfg.SignatureType,
			APIKey:        cfg.APIKey,
			Secret:        cfg.Secret,
			Passphrase:    cfg.Passphrase,
		})
		if err != nil {
			return nil, fmt.Errorf("create signer: %w", err)
		}
		signer = walletSigner
		logger.Info("signer-ready", zap.String("address", walletSigner.Address()))
	}

	return clob.New(&clob.Config{
		BaseURL: cfg.CLOBBaseURL,
		Signer:  signer,
		Logger:  logger,
	}), nil
}

func setupEngine(cfg *config.Config, logger *zap.Logger, clobClient *clob.Client, tracker *position.Tracker) *execution.Engine {
	return execution.New(&execution.Config{
		Logger:        logger,
		Transport:     clobClient,
		Balance:       clobClient,
		Recorder:      tracker,
		DryRun:        cfg.DryRun,
		OrderType:     execution.TimeInForce(cfg.OrderType),
		BalanceMargin: cfg.BalanceMargin,
		SimBalance:    cfg.SimBalance,
		PollInterval:  cfg.PollInterval,
		PollTimeout:   cfg.PollTimeout,
	})
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupFeed(cfg *config.Config, logger *zap.Logger) *websocket.Feed {
	return websocket.NewFeed(websocket.Config{
		URL:                   cfg.WSURL,
		DialTimeout:           cfg.WSDialTimeout,
		PongTimeout:           cfg.WSPongTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		Logger:                logger,
	})
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	tracker *position.Tracker,
	detector *arbitrage.Detector,
	engine *execution.Engine,
	currentMarket func() *types.Market,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Tracker:       tracker,
		Detector:      detector,
		Engine:        engine,
		DryRun:        cfg.DryRun,
		CurrentMarket: currentMarket,
	})
}
