package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tradekit",
	Short: "A risk-governed algorithmic trading toolkit",
	Long: `Tradekit runs rule-based spot trading strategies under strict risk control.

It provides tools for:
  - Backtesting strategies against historical candle data
  - Live paper trading over exchange websocket streams
  - Portfolio-wide risk limits enforced by a single governor
  - ATR and percent trailing stops with breakeven promotion
  - Fee-aware position sizing and P/L accounting
  - SQLite and CSV trade journals with run reports`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
