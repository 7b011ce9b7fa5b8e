package backtest

import (
	"fmt"
	"io"

	"github.com/rustyeddy/rebalancer/market"
)

// ReportOptions tweaks PrintReport.
type ReportOptions struct {
	RunID string
	// Tail prints the last Tail portfolio values; 0 skips them.
	Tail int
}

// PrintReport writes a plain text summary of a run.
func PrintReport(w io.Writer, r *Result, opts ReportOptions) {
	if opts.Tail > 0 {
		n := opts.Tail
		if n > len(r.Values) {
			n = len(r.Values)
		}
		fmt.Fprintf(w, "Portfolio value (last %d days)\n", n)
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, v := range r.Values[len(r.Values)-n:] {
			fmt.Fprintf(w, "%s  %14.2f\n", v.Date.Format(market.DateFormat), v.Value)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Rebalancing Backtest Report")
	fmt.Fprintln(w, "==================================================")

	if opts.RunID != "" {
		fmt.Fprintf(w, "Run ID:        %s\n", opts.RunID)
	}
	fmt.Fprintf(w, "Period:        %s ~ %s\n", r.Start().Format(market.DateFormat), r.End().Format(market.DateFormat))
	fmt.Fprintf(w, "Assets:        %d\n", len(r.Config.Weights))
	fmt.Fprintf(w, "Rebalance:     %s (%d events)\n", r.Config.Frequency, len(r.Rebalances))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Portfolio")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Capital: %.2f\n", r.Config.InitialCapital)
	fmt.Fprintf(w, "Final Value:   %.2f\n", r.FinalValue())
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.Portfolio.ReturnPct)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.Portfolio.MaxDrawdownPct)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Buy and Hold")
	fmt.Fprintln(w, "--------------------------------------------------")
	for _, a := range r.Config.Weights.Assets() {
		p := r.Assets[a]
		fmt.Fprintf(w, "%-8s weight %5.1f%%  return %8.2f%%  MDD %8.2f%%\n",
			a, r.Config.Weights[a]*100, p.ReturnPct, p.MaxDrawdownPct)
	}
	fmt.Fprintln(w, "==================================================")
}
