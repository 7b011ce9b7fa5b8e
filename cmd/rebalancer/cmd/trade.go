package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/rustyeddy/rebalancer/broker"
	"github.com/rustyeddy/rebalancer/broker/paper"
	"github.com/rustyeddy/rebalancer/rebalance"
	"github.com/spf13/cobra"
)

var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Place the orders that buy the configured weights",
	Long: `Trade quotes every configured stock and places a market order for
floor(portfolio_value * weight / price) shares. Assets that fail to quote or
order are reported and skipped.

With --dry-run the orders go to an in-memory paper broker at live quotes.`,
	Args: cobra.NoArgs,
	RunE: runTrade,
}

var (
	tradeDryRun bool
	tradeValue  float64
)

func init() {
	rootCmd.AddCommand(tradeCmd)
	tradeCmd.Flags().BoolVar(&tradeDryRun, "dry-run", false, "fill orders on a paper broker")
	tradeCmd.Flags().Float64Var(&tradeValue, "portfolio-value", 0, "total value to allocate (default from config)")
}

func runTrade(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("portfolio-value") {
		cfg.Trade.PortfolioValue = tradeValue
	}
	dryRun := cfg.Trade.DryRun || tradeDryRun

	client, err := newKIS(cfg)
	if err != nil {
		return err
	}

	var orderer broker.Orderer = client
	var pb *paper.Broker
	if dryRun {
		pb = paper.New(client)
		orderer = pb
		log.Info().Msg("dry run: orders go to the paper broker")
	}

	s := &rebalance.Strategy{
		Weights:        cfg.Stocks,
		PortfolioValue: cfg.Trade.PortfolioValue,
		Quoter:         client,
		Orderer:        orderer,
	}
	rep, err := s.Execute(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Orders")
	fmt.Fprintln(out, "--------------------------------------------------")
	for _, p := range rep.Placed {
		fmt.Fprintf(out, "%-6s %8d @ %10.2f  %-10s %s\n",
			p.Order.Asset, p.Order.Quantity, p.Order.Price, p.Result.Status, p.Result.OrderID)
	}
	for _, f := range rep.Failures {
		fmt.Fprintf(out, "%-6s FAILED: %v\n", f.Asset, f.Err)
	}
	if pb != nil {
		fmt.Fprintf(out, "\nPaper cost: %.2f of %.2f\n", pb.Cost(), cfg.Trade.PortfolioValue)
	}

	if len(rep.Failures) > 0 {
		return fmt.Errorf("%d assets failed", len(rep.Failures))
	}
	return nil
}
