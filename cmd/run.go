package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mselser95/updown-arb/internal/app"
	"github.com/mselser95/updown-arb/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the arbitrage bot",
	Long: `Starts the bot, which will:
1. Resolve the active BTC up/down 15-minute market
2. Scan both legs' order books at the configured interval
3. Execute paired orders when the pair cost is below the threshold
4. Roll over to the next window when the current one closes

Use --dry-run to force simulation regardless of DRY_RUN in the environment.`,
	RunE: runBot,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("dry-run", false, "Force dry-run mode on")
}

func runBot(cmd *cobra.Command, args []string) error {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dryRunOverride, _ := cmd.Flags().GetBool("dry-run")
	if dryRunOverride {
		cfg.DryRun = true
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger, &app.Options{
		DryRunOverride: dryRunOverride,
	})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	if err := application.Run(); err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
