package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mselser95/updown-arb/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Load and validate configuration",
	Long: `Loads configuration from the environment (and .env if present),
validates it, and prints the effective trading parameters. Secrets are
shown only as set/unset.`,
	RunE: runCheckConfig,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(checkConfigCmd)
}

func runCheckConfig(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	validationErr := cfg.Validate()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "dry_run\t%v\n", cfg.DryRun)
	fmt.Fprintf(w, "target_pair_cost\t%s\n", cfg.TargetPairCost)
	fmt.Fprintf(w, "order_size\t%s\n", cfg.OrderSize)
	fmt.Fprintf(w, "order_type\t%s\n", cfg.OrderType)
	fmt.Fprintf(w, "cooldown\t%s\n", cfg.Cooldown)
	fmt.Fprintf(w, "scan_interval\t%s\n", cfg.ScanInterval)
	fmt.Fprintf(w, "balance_margin\t%s\n", cfg.BalanceMargin)
	fmt.Fprintf(w, "sim_balance\t%s\n", cfg.SimBalance)
	fmt.Fprintf(w, "clob_base_url\t%s\n", cfg.CLOBBaseURL)
	fmt.Fprintf(w, "gamma_api_url\t%s\n", cfg.GammaBaseURL)
	fmt.Fprintf(w, "ws_feed\t%v\n", cfg.UseWebSocketFeed)
	fmt.Fprintf(w, "storage_mode\t%s\n", cfg.StorageMode)
	fmt.Fprintf(w, "private_key\t%s\n", setOrUnset(cfg.PrivateKey))
	fmt.Fprintf(w, "api_key\t%s\n", setOrUnset(cfg.APIKey))
	fmt.Fprintf(w, "secret\t%s\n", setOrUnset(cfg.Secret))
	fmt.Fprintf(w, "passphrase\t%s\n", setOrUnset(cfg.Passphrase))
	if err := w.Flush(); err != nil {
		return err
	}

	if validationErr != nil {
		return fmt.Errorf("validate config: %w", validationErr)
	}

	fmt.Println("\nconfiguration OK")
	return nil
}

func setOrUnset(value string) string {
	if value == "" {
		return "(unset)"
	}
	return "(set)"
}
