// Package strategy defines the signal capability the engine consumes and
// the concrete rule sets shipped with the toolkit. A strategy only reads
// price history and proposes entries/exits; sizing, risk budgeting and
// order handling belong to the engine and the risk governor.
package strategy

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/tradekit/ledger"
	"github.com/rustyeddy/tradekit/market"
)

// Column names strategies install on the frame. The engine reads ColATR for
// stop placement and trailing.
const (
	ColATR     = "atr"
	ColEMAFast = "ema_fast"
	ColEMASlow = "ema_slow"
	ColRSI     = "rsi"
	ColMACD    = "macd"
	ColSignal  = "macd_signal"
)

// Strategy is the pluggable entry/exit rule set.
type Strategy interface {
	Name() string

	// Prepare recomputes the indicator columns the strategy needs over the
	// candle history. Called once per closed bar before signals are read.
	Prepare(f *market.Frame) error

	// ShouldEnter reports whether a long entry should open on the latest
	// bar. It must return false while any required indicator is warming up.
	ShouldEnter(f *market.Frame) bool

	// ShouldExit reports a signal exit for an open position. The reason
	// tags the journal entry; protective stops and profit targets are the
	// engine's business, not the strategy's.
	ShouldExit(f *market.Frame, p *ledger.Position) (reason string, exit bool)
}

// Params carries tuning knobs for the built-in strategies. Zero values fall
// back to each strategy's defaults.
type Params struct {
	FastPeriod int
	SlowPeriod int
	RSIPeriod  int
	RSIMin     float64
	RSIMax     float64
	ATRPeriod  int

	MACDFast   int
	MACDSlow   int
	MACDSignal int
	RSIFloor   float64
}

// ByName builds a strategy from its registry name.
func ByName(name string, p Params) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ema-rsi", "emarsi":
		return NewEMARSI(p), nil
	case "macd", "macd-cross":
		return NewMACDCross(p), nil
	case "noop", "none":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: ema-rsi, macd, noop)", name)
	}
}

// Noop never signals. Useful as a baseline in backtests.
type Noop struct{}

func (Noop) Name() string { return "noop" }
func (Noop) Prepare(*market.Frame) error { return nil }
func (Noop) ShouldEnter(*market.Frame) bool { return false }
func (Noop) ShouldExit(*market.Frame, *ledger.Position) (string, bool) {
	return "", false
}
