// Package metrics exposes Prometheus instruments for the trade engine and
// serves them over HTTP for live sessions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BarsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradekit_bars_processed_total",
		Help: "Closed bars consumed by the engine.",
	}, []string{"symbol"})

	OrdersPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradekit_orders_placed_total",
		Help: "Market orders sent to the broker.",
	}, []string{"symbol", "side"})

	EntriesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradekit_entries_rejected_total",
		Help: "Entry attempts denied by the risk governor, by reason.",
	}, []string{"reason"})

	TradesClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradekit_trades_closed_total",
		Help: "Positions closed, by exit reason.",
	}, []string{"symbol", "reason"})

	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradekit_open_positions",
		Help: "Currently open positions.",
	})

	Equity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradekit_equity",
		Help: "Account equity marked to last prices.",
	})

	CommittedRisk = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradekit_committed_risk",
		Help: "Sum of risk fractions across open trades.",
	})

	DailyLoss = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradekit_daily_loss",
		Help: "Realized loss accumulated since the last daily reset.",
	})
)

// Serve exposes /metrics on addr. Blocks; run it in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
