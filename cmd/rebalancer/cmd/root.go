package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rustyeddy/rebalancer/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rebalancer",
	Short: "Backtest and run periodic portfolio rebalancing",
	Long: `Rebalancer holds a fixed-weight stock portfolio.

It provides tools for:
  - Backtesting daily, weekly or monthly rebalancing on daily closes
  - Caching daily price history in SQLite
  - Journaling backtest runs
  - Placing the rebalancing orders through a broker`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	cfgFile  string
	logLevel string
	envFile  string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug|info|warn|error (default from config)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file with broker secrets")
}

func setup(cmd *cobra.Command, args []string) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err := setLevel(logLevel); err != nil {
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		// a missing default .env is fine
		if cmd.Flags().Changed("env-file") || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file: %w", err)
		}
	}
	return nil
}

func setLevel(level string) error {
	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// loadConfig reads --config, falling back to defaults when the file does
// not exist, and applies log.level unless --log-level was given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if !cmd.Flags().Changed("log-level") {
		if err := setLevel(cfg.Log.Level); err != nil {
			return nil, err
		}
	}
	log.Debug().Str("config", cfgFile).Strs("assets", cfg.Assets()).Msg("config loaded")
	return cfg, nil
}
