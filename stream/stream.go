// Package stream delivers candle bars to the engine, either replayed from
// historical files or live over a websocket.
package stream

import (
	"context"

	"github.com/rustyeddy/tradekit/market"
)

// Feed is a source of bars. Bars() is closed when the feed is exhausted or
// the context given to Run is cancelled. Err reports the terminal error, if
// any, once Bars() is closed.
type Feed interface {
	Run(ctx context.Context) error
	Bars() <-chan market.Bar
}
