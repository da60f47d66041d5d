package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradekit/config"
	"github.com/rustyeddy/tradekit/engine"
	"github.com/rustyeddy/tradekit/stream"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay historical candles through a strategy",
	Long: `Backtest replays CSV candle data through the configured strategy with the
full risk stack engaged: governor limits, fee-aware sizing and trailing stops
all apply exactly as they would live.

Candle files need columns time,open,high,low,close[,volume].

Example:
  tradekit backtest -c config.yaml --data BTCUSDT=data/btc_1h.csv --rr 2`,
	RunE: runBacktestCmd,
}

var (
	btConfigPath string
	btData       []string
	btBalance    float64
	btTargetRR   float64
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "config.yaml", "path to YAML config")
	backtestCmd.Flags().StringArrayVar(&btData, "data", nil, "SYMBOL=path candle CSV, repeatable (overrides config)")
	backtestCmd.Flags().Float64VarP(&btBalance, "balance", "b", 0, "override starting balance")
	backtestCmd.Flags().Float64Var(&btTargetRR, "rr", 0, "take profit as R multiple, 0 disables")
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(btConfigPath)
	if err != nil {
		return err
	}
	if btBalance > 0 {
		cfg.Account.Balance = btBalance
	}

	files := cfg.Trading.Data
	if len(btData) > 0 {
		files = make(map[string]string, len(btData))
		for _, kv := range btData {
			symbol, path, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("bad --data %q, want SYMBOL=path", kv)
			}
			files[symbol] = path
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no candle data: set trading.data in the config or pass --data")
	}

	feed, err := stream.NewHistoryFromFiles(files)
	if err != nil {
		return err
	}

	eng, jrn, err := buildEngine(cfg, engine.ModeBacktest, btTargetRR)
	if err != nil {
		return err
	}
	defer jrn.Close()

	res, err := eng.Backtest(context.Background(), feed)
	if err != nil {
		return err
	}

	fmt.Println(res.String())
	return nil
}
