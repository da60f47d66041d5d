package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaperFill(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	b := NewPaper(0.001, 0).WithClock(func() time.Time { return now })

	fill, err := b.MarketBuy(context.Background(), "BTCUSDT", 2, 100)
	require.NoError(t, err)
	assert.InDelta(t, 100, fill.Price, 1e-9)
	assert.InDelta(t, 2, fill.Quantity, 1e-9)
	assert.InDelta(t, 0.2, fill.Fee, 1e-9)
	assert.Equal(t, now, fill.Time)
}

func TestPaperSlippage(t *testing.T) {
	t.Parallel()

	b := NewPaper(0, 0.01)

	buy, err := b.MarketBuy(context.Background(), "BTCUSDT", 1, 100)
	require.NoError(t, err)
	assert.InDelta(t, 101, buy.Price, 1e-9)

	sell, err := b.MarketSell(context.Background(), "BTCUSDT", 1, 100)
	require.NoError(t, err)
	assert.InDelta(t, 99, sell.Price, 1e-9)
}

func TestPaperRejects(t *testing.T) {
	t.Parallel()

	b := NewPaper(0.001, 0)

	_, err := b.MarketBuy(context.Background(), "BTCUSDT", 0, 100)
	assert.Error(t, err)

	_, err = b.MarketSell(context.Background(), "BTCUSDT", 1, -5)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.MarketBuy(ctx, "BTCUSDT", 1, 100)
	assert.ErrorIs(t, err, context.Canceled)
}
