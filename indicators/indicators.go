// Package indicators provides technical analysis indicators for trading.
//
// Indicators come in two flavors: streaming objects implementing Indicator,
// fed one closed candle at a time, and *Series helpers that compute a whole
// derived series aligned with a candle history. Series values inside the
// warm-up window are NaN so a market.Frame can report them as undefined.
package indicators

import "github.com/rustyeddy/tradekit/market"

// Indicator computes a single streaming value from candles.
// It is deterministic and safe to use in live, replay, and backtests.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "RSI(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* candle and updates internal state.
	Update(c market.Candle)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current indicator value. Callers must check Ready().
	Value() float64
}
