package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/rustyeddy/rebalancer/backtest"
	"github.com/rustyeddy/rebalancer/journal"
	"github.com/spf13/cobra"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest periodic rebalancing of the configured portfolio",
	Long: `Backtest buys the configured weights with the initial capital on the
first common trading day and rebalances back to them on the first trading
day of every period. Daily history is cached in a SQLite price store and
refreshed from Yahoo Finance.

Example:
  rebalancer backtest --freq weekly --start 2020-01-01 --tail 5`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

var (
	btCapital float64
	btFreq    string
	btStart   string
	btEnd     string
	btDBPath  string
	btJournal string
	btCSV     string
	btTail    int
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().Float64Var(&btCapital, "capital", 0, "initial capital (default from config)")
	backtestCmd.Flags().StringVarP(&btFreq, "freq", "f", "", "rebalance frequency: daily|weekly|monthly or d|w|m")
	backtestCmd.Flags().StringVar(&btStart, "start", "", "first date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&btEnd, "end", "", "last date YYYY-MM-DD")
	backtestCmd.Flags().StringVarP(&btDBPath, "db", "d", "", "path to SQLite price store")
	backtestCmd.Flags().StringVar(&btJournal, "journal", "", "path to SQLite run journal (\"-\" disables)")
	backtestCmd.Flags().StringVar(&btCSV, "csv", "", "write the portfolio value series to this CSV file")
	backtestCmd.Flags().IntVar(&btTail, "tail", 5, "print the last N portfolio values")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("capital") {
		cfg.Backtest.InitialCapital = btCapital
	}
	if flags.Changed("freq") {
		cfg.Backtest.RebalanceFrequency = btFreq
	}
	if flags.Changed("start") {
		cfg.Backtest.Start = btStart
	}
	if flags.Changed("end") {
		cfg.Backtest.End = btEnd
	}
	if flags.Changed("db") {
		cfg.Backtest.DBPath = btDBPath
	}
	if flags.Changed("journal") {
		cfg.Journal.DBPath = btJournal
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	btCfg, err := cfg.BacktestConfig()
	if err != nil {
		return err
	}
	rng, err := cfg.Range()
	if err != nil {
		return err
	}

	loader, err := openLoader(cfg.Backtest.DBPath)
	if err != nil {
		return err
	}
	defer loader.Store.Close()

	ctx := cmd.Context()
	runner := backtest.Runner{Source: loader, Config: btCfg}
	res, err := runner.Run(ctx, rng)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	run := journal.NewRun(res, time.Now())
	if cfg.Journal.DBPath != "" && cfg.Journal.DBPath != "-" {
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer j.Close()

		if err := j.RecordRun(ctx, run, res.Values); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		log.Info().Str("run_id", run.ID).Str("journal", cfg.Journal.DBPath).Msg("run recorded")
	} else {
		run.ID = ""
	}

	if btCSV != "" {
		w, err := journal.CreateCSV(btCSV)
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		if err := w.WriteAll(res.Values); err != nil {
			w.Close()
			return fmt.Errorf("write csv: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}

	backtest.PrintReport(cmd.OutOrStdout(), res, backtest.ReportOptions{RunID: run.ID, Tail: btTail})
	return nil
}
