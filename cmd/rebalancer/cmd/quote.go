package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <asset>...",
	Short: "Print live quotes from the broker",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newKIS(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, a := range args {
		q, err := client.Quote(cmd.Context(), a)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-6s %12.2f  %s\n", q.Asset, q.Price, q.Time.Format("2006-01-02 15:04:05"))
	}
	return nil
}
