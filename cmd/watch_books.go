package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mselser95/updown-arb/internal/arbitrage"
	"github.com/mselser95/updown-arb/internal/discovery"
	"github.com/mselser95/updown-arb/internal/orderbook"
	"github.com/mselser95/updown-arb/pkg/cache"
	"github.com/mselser95/updown-arb/pkg/config"
	"github.com/mselser95/updown-arb/pkg/websocket"
)

//nolint:gochecknoglobals // Cobra boilerplate
var watchBooksCmd = &cobra.Command{
	Use:   "watch-books",
	Short: "Watch both legs' order books for the active market",
	Long: `Resolves the active BTC up/down market, subscribes to both legs
over WebSocket and prints best bid/ask and the pair cost once a second.
Useful for eyeballing how close the window trades to the threshold.`,
	RunE: runWatchBooks,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(watchBooksCmd)
}

func runWatchBooks(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	marketCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}

	service := discovery.New(&discovery.Config{
		Client: discovery.NewClient(cfg.GammaBaseURL, logger),
		Cache:  marketCache,
		Logger: logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	market, err := service.ResolveActive(ctx)
	if err != nil {
		return fmt.Errorf("resolve active market: %w", err)
	}
	fmt.Printf("watching %s (%s remaining)\n", market.Slug, market.TimeRemainingString())

	feed := websocket.NewFeed(websocket.Config{
		URL:                   cfg.WSURL,
		DialTimeout:           cfg.WSDialTimeout,
		PongTimeout:           cfg.WSPongTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		Logger:                logger,
	})
	if err := feed.Start(); err != nil {
		return fmt.Errorf("start feed: %w", err)
	}
	defer func() {
		_ = feed.Close()
	}()

	if err := feed.SetMarket(ctx, market); err != nil {
		return fmt.Errorf("subscribe market: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigChan:
			fmt.Println("\nstopping")
			return nil
		case <-ticker.C:
			up, down, ok := feed.Books()
			if !ok {
				fmt.Println("waiting for book snapshots...")
				continue
			}
			printPair(up, down, cfg.TargetPairCost)
		}
	}
}

func printPair(up, down *orderbook.OutcomeBook, target decimal.Decimal) {
	upBid, _ := up.BestBid()
	upAsk, hasUpAsk := up.BestAsk()
	downBid, _ := down.BestBid()
	downAsk, hasDownAsk := down.BestAsk()

	pairCost := "n/a"
	if hasUpAsk && hasDownAsk {
		pairCost = upAsk.Add(downAsk).String()
	}
	spreadStr := "n/a"
	if spread, ok := arbitrage.EffectiveSpread(up, down); ok {
		spreadStr = spread.String()
	}

	// Executable arb depth: shares on each leg priced so the pair still
	// clears the threshold against the other leg's best ask.
	arbDepth := "n/a"
	if hasUpAsk && hasDownAsk {
		upDepth := orderbook.DepthAtOrBelow(up, target.Sub(downAsk))
		downDepth := orderbook.DepthAtOrBelow(down, target.Sub(upAsk))
		if upDepth.LessThan(downDepth) {
			arbDepth = upDepth.String()
		} else {
			arbDepth = downDepth.String()
		}
	}

	fmt.Printf("UP %s/%s  DOWN %s/%s  pair_cost=%s  spread=%s  arb_depth=%s  ask_liq=%s/%s  bid_liq=%s/%s\n",
		formatPrice(upBid), formatPrice(upAsk),
		formatPrice(downBid), formatPrice(downAsk),
		pairCost, spreadStr, arbDepth,
		up.TotalAskLiquidity(), down.TotalAskLiquidity(),
		up.TotalBidLiquidity(), down.TotalBidLiquidity())
}

func formatPrice(p decimal.Decimal) string {
	if p.IsZero() {
		return "-"
	}
	return p.String()
}
