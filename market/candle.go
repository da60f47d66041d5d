// Package market defines the price data types shared by feeds, indicators,
// strategies and the trade engine.
package market

import (
	"fmt"
	"time"
)

// Candle is one OHLCV bar. Candles are immutable once closed and ordered by
// open time; a bar is uniquely keyed by (symbol, interval, open time).
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Bar tags a candle with its symbol and whether the bar has closed.
// The engine only consumes closed bars; streaming feeds also deliver
// in-progress updates with Closed=false.
type Bar struct {
	Symbol string
	Closed bool
	Candle
}

// Interval is a candle timeframe like "1m", "15m", "1h", "4h" or "1d".
type Interval string

var intervalDurations = map[Interval]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
}

// Duration returns the span of one bar, or an error for an unknown interval.
func (iv Interval) Duration() (time.Duration, error) {
	d, ok := intervalDurations[iv]
	if !ok {
		return 0, fmt.Errorf("unknown interval %q", string(iv))
	}
	return d, nil
}

// Valid reports whether the interval is one the toolkit understands.
func (iv Interval) Valid() bool {
	_, ok := intervalDurations[iv]
	return ok
}
