package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"kisanrakshak/internal/config"
	"kisanrakshak/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose bool
	cfg     *config.Config
	logger  *zap.Logger
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kisan",
		Short: "Kisan Rakshak farmer advisory service",
		Long: `Kisan Rakshak serves crop diagnosis, mandi price, weather, scheme, loan and
insurance advice over HTTP. The subcommands below also run the lookups offline.

Configuration is read from the environment; a .env file in the working
directory is loaded first when present.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			var err error
			cfg, err = config.LoadUnchecked()
			if err != nil {
				return err
			}
			if verbose {
				cfg.Logging.Level = "debug"
			}
			logger, err = logging.New(cfg.Logging, cfg.Server.Development || verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newGrantRoleCmd(),
		newPricesCmd(),
		newWeatherCmd(),
		newSchemesCmd(),
		newTTSCmd(),
		newPremiumCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	rootCmd.SetOut(os.Stdout)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
