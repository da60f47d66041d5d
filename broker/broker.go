// Package broker abstracts order execution. The engine only ever sends
// market orders; limit management happens in the risk layer, not here.
package broker

import (
	"context"
	"time"
)

// Fill is the broker's report of an executed order.
type Fill struct {
	Symbol   string
	Price    float64
	Quantity float64
	Fee      float64
	Time     time.Time
}

// Broker executes market orders. Implementations decide fill price and fee.
type Broker interface {
	MarketBuy(ctx context.Context, symbol string, quantity, refPrice float64) (Fill, error)
	MarketSell(ctx context.Context, symbol string, quantity, refPrice float64) (Fill, error)
}
