package cmd

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradekit/config"
	"github.com/rustyeddy/tradekit/engine"
	"github.com/rustyeddy/tradekit/market"
	"github.com/rustyeddy/tradekit/metrics"
	"github.com/rustyeddy/tradekit/stream"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Paper trade live over an exchange websocket",
	Long: `Run subscribes to kline streams for the configured symbols and paper
trades them with the full risk stack. SIGINT or SIGTERM starts a graceful
shutdown: no new entries are opened while buffered bars finish processing.

Example:
  tradekit run -c config.yaml`,
	RunE: runLiveCmd,
}

var (
	runConfigPath string
	runTargetRR   float64
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "config.yaml", "path to YAML config")
	runCmd.Flags().Float64Var(&runTargetRR, "rr", 0, "take profit as R multiple, 0 disables")
}

func runLiveCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return err
	}

	eng, jrn, err := buildEngine(cfg, engine.ModeLive, runTargetRR)
	if err != nil {
		return err
	}
	defer jrn.Close()

	feed, err := stream.NewKline(cfg.Trading.Symbols, market.Interval(cfg.Trading.Interval))
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(cfg.Metrics.Addr); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
		log.Printf("metrics at http://%s/metrics", cfg.Metrics.Addr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("paper trading %v on %s, balance %.2f",
		cfg.Trading.Symbols, cfg.Trading.Interval, cfg.Account.Balance)

	err = engine.NewSession(eng, feed, eng.Days()).Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Printf("shutdown complete, final equity %.2f", eng.Equity())
		return nil
	}
	return err
}
