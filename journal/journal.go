// Package journal persists closed trades, equity snapshots and backtest run
// summaries. Two implementations ship: SQLite for queryable history and CSV
// for spreadsheet-friendly exports.
package journal

import (
	"time"

	"github.com/rustyeddy/tradekit/ledger"
)

// EquitySnapshot is a point-in-time account valuation.
type EquitySnapshot struct {
	Time    time.Time
	Balance float64
	Equity  float64
}

// RunSummary captures one backtest run's aggregate results.
type RunSummary struct {
	RunID        string
	Created      time.Time
	Strategy     string
	Symbols      string
	Interval     string
	Start        time.Time
	End          time.Time
	StartBalance float64
	EndBalance   float64
	Trades       int
	Wins         int
	Losses       int
	NetPnL       float64
	ReturnPct    float64
	WinRate      float64
	ProfitFactor float64
	MaxDDPct     float64
}

// Journal records trading activity. Implementations must be safe to call
// from the engine's worker goroutines.
type Journal interface {
	RecordTrade(ledger.TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop discards everything. Handy for tests and dry runs.
type Nop struct{}

func (Nop) RecordTrade(ledger.TradeRecord) error { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error { return nil }
