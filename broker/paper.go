package broker

import (
	"context"
	"fmt"
	"time"
)

// Paper fills every order at the reference price plus configurable slippage,
// charging a proportional fee. Used by both backtests and paper-trading
// sessions.
type Paper struct {
	FeeRate  float64 // proportional fee per fill, e.g. 0.001
	Slippage float64 // fraction added on buys, subtracted on sells

	clock func() time.Time
}

func NewPaper(feeRate, slippage float64) *Paper {
	return &Paper{FeeRate: feeRate, Slippage: slippage, clock: time.Now}
}

// WithClock overrides the fill timestamp source. Backtests pin fills to
// bar time.
func (b *Paper) WithClock(clock func() time.Time) *Paper {
	b.clock = clock
	return b
}

func (b *Paper) MarketBuy(ctx context.Context, symbol string, quantity, refPrice float64) (Fill, error) {
	return b.fill(ctx, symbol, quantity, refPrice*(1+b.Slippage))
}

func (b *Paper) MarketSell(ctx context.Context, symbol string, quantity, refPrice float64) (Fill, error) {
	return b.fill(ctx, symbol, quantity, refPrice*(1-b.Slippage))
}

func (b *Paper) fill(ctx context.Context, symbol string, quantity, price float64) (Fill, error) {
	if err := ctx.Err(); err != nil {
		return Fill{}, err
	}
	if quantity <= 0 {
		return Fill{}, fmt.Errorf("order %s: quantity must be positive, got %v", symbol, quantity)
	}
	if price <= 0 {
		return Fill{}, fmt.Errorf("order %s: price must be positive, got %v", symbol, price)
	}
	return Fill{
		Symbol:   symbol,
		Price:    price,
		Quantity: quantity,
		Fee:      price * quantity * b.FeeRate,
		Time:     b.clock(),
	}, nil
}
