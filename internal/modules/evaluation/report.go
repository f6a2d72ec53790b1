package evaluation

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/aristath/kalshigym/internal/domain"
)

// WriteTable prints one row per result in the order given
func WriteTable(w io.Writer, results []EpisodeResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Strategy\tReturn %\tFinal Value\tP&L\tTrades\tWin Rate %\tSharpe\tMax DD %\tReward\t")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%d\t%.1f\t%.2f\t%.2f\t%.2f\t\n",
			r.Strategy,
			r.ReturnPct,
			r.FinalValue,
			r.PnL,
			r.NumTrades,
			r.WinRate*100,
			r.Sharpe,
			r.MaxDrawdown*100,
			r.TotalReward,
		)
	}
	return tw.Flush()
}

// WriteSummary prints a detailed single-episode report including the
// decision distribution
func WriteSummary(w io.Writer, r EpisodeResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n%s\n", r.Strategy, strings.Repeat("=", 60))
	fmt.Fprintf(&b, "Total Steps: %d\n", r.Steps)
	fmt.Fprintf(&b, "Total Reward: %.2f\n", r.TotalReward)
	fmt.Fprintf(&b, "Final Portfolio Value: %.2f\n", r.FinalValue)
	fmt.Fprintf(&b, "Total P&L: %.2f\n", r.PnL)
	fmt.Fprintf(&b, "Return: %.2f%%\n", r.ReturnPct)
	fmt.Fprintf(&b, "Total Trades: %d\n", r.NumTrades)
	fmt.Fprintf(&b, "Win Rate: %.2f%%\n", r.WinRate*100)
	fmt.Fprintf(&b, "Sharpe Ratio: %.2f\n", r.Sharpe)
	fmt.Fprintf(&b, "Max Drawdown: %.2f%%\n", r.MaxDrawdown*100)
	if r.Terminated {
		b.WriteString("Episode terminated\n")
	}
	if r.Truncated {
		b.WriteString("Episode truncated\n")
	}

	b.WriteString("\nAction Distribution:\n")
	for d := domain.DecisionHold; int(d) < domain.NumDecisions; d++ {
		name := d.String()
		fmt.Fprintf(&b, "%s: %d (%.1f%%)\n", name, r.ActionCounts[name], r.ActionShare(name)*100)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
