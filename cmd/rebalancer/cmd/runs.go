package cmd

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/rebalancer/journal"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query the backtest run journal",
	Long: `Query recorded backtest runs.

Subcommands:
  list  - List recent runs
  show  - Show one run

Examples:
  rebalancer runs list --limit 10
  rebalancer runs show 01HNM4ZC4QZ... --org`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run and its value series",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var (
	runsDBPath string
	runsLimit  int
	runsOrg    bool
)

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsCmd.PersistentFlags().StringVarP(&runsDBPath, "db", "d", "", "path to SQLite run journal (default from config)")
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum runs to list (0 for all)")
	runsShowCmd.Flags().BoolVar(&runsOrg, "org", false, "print as an org-mode entry")
}

func openJournal(cmd *cobra.Command) (*journal.SQLite, error) {
	path := runsDBPath
	if path == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return nil, err
		}
		path = cfg.Journal.DBPath
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return j, nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	j, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %s ~ %s  %-7s %8.2f%%  MDD %8.2f%%  %s\n",
			r.ID,
			r.Start.Format("2006-01-02"),
			r.End.Format("2006-01-02"),
			r.Frequency,
			r.ReturnPct,
			r.MaxDrawdownPct,
			strings.Join(r.Assets(), ","),
		)
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	j, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	run, err := j.GetRun(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	out := cmd.OutOrStdout()
	if runsOrg {
		return journal.WriteOrg(out, run)
	}

	values, err := j.ListValues(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("list values: %w", err)
	}

	fmt.Fprintf(out, "Run ID:        %s\n", run.ID)
	fmt.Fprintf(out, "Created:       %s\n", run.Created.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Period:        %s ~ %s\n", run.Start.Format("2006-01-02"), run.End.Format("2006-01-02"))
	fmt.Fprintf(out, "Rebalance:     %s (%d events)\n", run.Frequency, run.Rebalances)
	fmt.Fprintf(out, "Start Capital: %.2f\n", run.InitialCapital)
	fmt.Fprintf(out, "Final Value:   %.2f\n", run.FinalValue)
	fmt.Fprintf(out, "Return:        %.2f%%\n", run.ReturnPct)
	fmt.Fprintf(out, "Max Drawdown:  %.2f%%\n", run.MaxDrawdownPct)
	for _, a := range run.Assets() {
		fmt.Fprintf(out, "  %-6s %5.1f%%\n", a, run.Weights[a]*100)
	}
	fmt.Fprintf(out, "Values:        %d days\n", len(values))
	return nil
}
