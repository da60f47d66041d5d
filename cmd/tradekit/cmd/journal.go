package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradekit/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect a SQLite trade journal",
	Long: `Journal prints recent trades and an aggregate summary from a SQLite
journal database. With --runs it lists stored backtest reports instead.

Example:
  tradekit journal -d tradekit.db -n 20`,
	RunE: runJournalCmd,
}

var (
	jnDBPath string
	jnLimit  int
	jnRuns   bool
)

func init() {
	rootCmd.AddCommand(journalCmd)

	journalCmd.Flags().StringVarP(&jnDBPath, "db", "d", "tradekit.db", "path to SQLite journal DB")
	journalCmd.Flags().IntVarP(&jnLimit, "limit", "n", 20, "max rows to print")
	journalCmd.Flags().BoolVar(&jnRuns, "runs", false, "list backtest runs instead of trades")
}

func runJournalCmd(cmd *cobra.Command, args []string) error {
	j, err := journal.OpenSQLite(jnDBPath)
	if err != nil {
		return err
	}
	defer j.Close()

	if jnRuns {
		return printRuns(j)
	}
	return printTrades(j)
}

func printTrades(j *journal.SQLite) error {
	trades, err := j.Trades(jnLimit)
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		fmt.Println("no trades recorded")
		return nil
	}

	fmt.Printf("%-27s %-10s %10s %10s %10s %10s %8s %-14s %s\n",
		"TRADE", "SYMBOL", "ENTRY", "EXIT", "QTY", "NET", "FEES", "REASON", "CLOSED")
	for _, rec := range trades {
		fmt.Printf("%-27s %-10s %10.4f %10.4f %10.4f %10.4f %8.4f %-14s %s\n",
			rec.TradeID, rec.Symbol, rec.EntryPrice, rec.ExitPrice, rec.Quantity,
			rec.NetPnL, rec.Fees, rec.Reason, rec.ClosedAt.Format(time.RFC3339))
	}

	n, wins, net, fees, err := j.Summary()
	if err != nil {
		return err
	}
	winrate := 0.0
	if n > 0 {
		winrate = float64(wins) / float64(n) * 100
	}
	fmt.Printf("\n%d trades, %d wins (%.1f%%), net %.4f, fees %.4f\n", n, wins, winrate, net, fees)
	return nil
}

func printRuns(j *journal.SQLite) error {
	runs, err := j.Runs(jnLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	for _, r := range runs {
		fmt.Printf("%s  %s  %s [%s]\n", r.RunID, r.Created.Format(time.RFC3339), r.Strategy, r.Symbols)
		fmt.Printf("  %s -> %s  balance %.2f -> %.2f (%.2f%%)\n",
			r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"),
			r.StartBalance, r.EndBalance, r.ReturnPct)
		fmt.Printf("  trades %d (W%d/L%d) winrate %.1f%% pf %.2f maxdd %.1f%%\n",
			r.Trades, r.Wins, r.Losses, r.WinRate*100, r.ProfitFactor, r.MaxDDPct)
	}
	return nil
}
