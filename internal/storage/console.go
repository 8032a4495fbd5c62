package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/updown-arb/internal/arbitrage"
	"github.com/mselser95/updown-arb/internal/execution"
)

const consoleRule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// ConsoleStorage implements Storage by pretty-printing to stdout. The
// default when no database is configured.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{logger: logger}
}

// StoreOpportunity pretty-prints an accepted opportunity.
func (c *ConsoleStorage) StoreOpportunity(_ context.Context, opp *arbitrage.Opportunity) error {
	fmt.Println("\n" + consoleRule)
	fmt.Printf("🎯 ARBITRAGE OPPORTUNITY\n")
	fmt.Println(consoleRule)
	fmt.Printf("ID:       %s\n", opp.ID[:8])
	fmt.Printf("Market:   %s\n", opp.Market.Slug)
	fmt.Printf("Time:     %s\n", opp.DetectedAt.Format("2006-01-02 15:04:05"))
	fmt.Println(consoleRule)
	fmt.Printf("📊 FILL QUOTES (worst price for %s shares)\n", opp.OrderSize)
	fmt.Printf("  UP:    %s (best %s)\n", opp.UpPrice, opp.UpQuote.BestPrice)
	fmt.Printf("  DOWN:  %s (best %s)\n", opp.DownPrice, opp.DownQuote.BestPrice)
	fmt.Printf("  Pair cost:  %s\n", opp.TotalCost)
	fmt.Println(consoleRule)
	fmt.Printf("💰 EXPECTED OUTCOME\n")
	fmt.Printf("  Investment:       $%s\n", opp.TotalInvestment)
	fmt.Printf("  Settlement:       $%s\n", opp.ExpectedPayout)
	fmt.Printf("  Profit:           $%s (%s%%)\n", opp.ExpectedProfit, opp.ProfitPct.StringFixed(2))
	fmt.Println(consoleRule)
	return nil
}

// StoreResult pretty-prints an execution result.
func (c *ConsoleStorage) StoreResult(_ context.Context, result *execution.Result) error {
	fmt.Println("\n" + consoleRule)
	fmt.Printf("⚡ EXECUTION %s\n", result.Outcome)
	fmt.Println(consoleRule)
	fmt.Printf("Opportunity: %s\n", result.OpportunityID)
	fmt.Printf("Market:      %s\n", result.MarketSlug)
	fmt.Printf("Duration:    %s\n", result.Duration)
	fmt.Printf("UP leg:      %s filled=%v size=%s\n",
		result.UpLeg.Status, result.UpLeg.Filled, result.UpLeg.FilledSize)
	fmt.Printf("DOWN leg:    %s filled=%v size=%s\n",
		result.DownLeg.Status, result.DownLeg.Filled, result.DownLeg.FilledSize)
	if result.Unwind != nil {
		fmt.Printf("Unwind:      attempted=%v succeeded=%v price=%s\n",
			result.Unwind.Attempted, result.Unwind.Succeeded, result.Unwind.Price)
	}
	fmt.Println(consoleRule)
	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
