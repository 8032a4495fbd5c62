// Package cmd holds the CLI entrypoints.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "updown-arb",
	Short: "BTC up/down market arbitrage bot",
	Long: `Arbitrage bot for Polymarket's BTC up/down 15-minute markets.

The bot resolves the active 15-minute window, watches both legs' order
books, and when buying one share of each side costs less than the
configured threshold it executes the pair as simultaneous FOK orders.
A pair filled on both legs pays out $1 at window close regardless of
direction.

Runs in dry-run mode by default; live trading requires a funded wallet
and CLOB API credentials.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
