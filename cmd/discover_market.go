package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mselser95/updown-arb/internal/discovery"
	"github.com/mselser95/updown-arb/pkg/cache"
	"github.com/mselser95/updown-arb/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var discoverMarketCmd = &cobra.Command{
	Use:   "discover-market",
	Short: "Resolve the active BTC up/down market",
	Long: `Resolves the BTC up/down 15-minute market for the current window
and prints its slug, token IDs and time remaining.`,
	RunE: runDiscoverMarket,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(discoverMarketCmd)
}

func runDiscoverMarket(cmd *cobra.Command, args []string) error {
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	market, err := service.ResolveActive(ctx)
	if err != nil {
		return fmt.Errorf("resolve active market: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "slug\t%s\n", market.Slug)
	fmt.Fprintf(w, "question\t%s\n", market.Question)
	fmt.Fprintf(w, "up_token_id\t%s\n", market.UpTokenID)
	fmt.Fprintf(w, "down_token_id\t%s\n", market.DownTokenID)
	fmt.Fprintf(w, "window_start\t%s\n", time.Unix(market.StartTimestamp, 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "window_end\t%s\n", time.Unix(market.EndTimestamp, 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "time_remaining\t%s\n", market.TimeRemainingString())
	if nextSlug, nextErr := discovery.NextSlug(market.Slug); nextErr == nil {
		fmt.Fprintf(w, "next_slug\t%s\n", nextSlug)
	}
	return w.Flush()
}
