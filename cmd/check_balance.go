package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mselser95/updown-arb/internal/clob"
	"github.com/mselser95/updown-arb/pkg/config"
	"github.com/mselser95/updown-arb/pkg/wallet"
)

//nolint:gochecknoglobals // Cobra boilerplate
var checkBalanceCmd = &cobra.Command{
	Use:   "check-balance",
	Short: "Query the CLOB collateral balance",
	Long: `Derives the trading address from PRIVATE_KEY and queries the CLOB
for the available USDC collateral. Requires live API credentials.`,
	RunE: runCheckBalance,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(checkBalanceCmd)
}

func runCheckBalance(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.PrivateKey == "" {
		return fmt.Errorf("PRIVATE_KEY is required")
	}
	if cfg.APIKey == "" || cfg.Secret == "" || cfg.Passphrase == "" {
		return fmt.Errorf("POLYMARKET_API_KEY, POLYMARKET_SECRET and POLYMARKET_PASSPHRASE are required")
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	signer, err := wallet.NewSigner(&wallet.Config{
		PrivateKey:    cfg.PrivateKey,
		ProxyAddress:  cfg.ProxyAddress,
		SignatureType: cfg.SignatureType,
		APIKey:        cfg.APIKey,
		Secret:        cfg.Secret,
		Passphrase:    cfg.Passphrase,
	})
	if err != nil {
		return fmt.Errorf("create signer: %w", err)
	}

	client := clob.New(&clob.Config{
		BaseURL: cfg.CLOBBaseURL,
		Signer:  signer,
		Logger:  logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	balance, err := client.Balance(ctx)
	if err != nil {
		return fmt.Errorf("fetch balance: %w", err)
	}

	fmt.Printf("address: %s\n", signer.Address())
	fmt.Printf("collateral: %s USDC\n", balance)
	return nil
}
