package cmd

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [assets...]",
	Short: "Fill the price store with daily history",
	Long: `Fetch downloads missing daily history for the given assets, or for the
configured stocks when none are given. New assets get ten years of history;
stored assets are filled from their last stored day up to yesterday.`,
	RunE: runFetch,
}

var fetchDBPath string

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVarP(&fetchDBPath, "db", "d", "", "path to SQLite price store (default from config)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if fetchDBPath != "" {
		cfg.Backtest.DBPath = fetchDBPath
	}

	assets := args
	if len(assets) == 0 {
		assets = cfg.Assets()
	}

	loader, err := openLoader(cfg.Backtest.DBPath)
	if err != nil {
		return err
	}
	defer loader.Store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	var failed int
	for _, a := range assets {
		a = strings.ToUpper(strings.TrimSpace(a))
		if err := loader.Refresh(ctx, a); err != nil {
			log.Error().Err(err).Str("asset", a).Msg("fetch failed")
			failed++
			continue
		}
		last, err := loader.Store.LastDate(ctx, a)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-6s up to %s\n", a, last.Format("2006-01-02"))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d assets failed", failed, len(assets))
	}
	return nil
}
