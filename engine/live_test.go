package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradekit/market"
	"github.com/rustyeddy/tradekit/risk"
	"github.com/rustyeddy/tradekit/strategy"
	"github.com/rustyeddy/tradekit/stream"
)

func multiSymbolHistory(t0 time.Time, closes map[string][]float64) *stream.History {
	candles := make(map[string][]market.Candle, len(closes))
	for symbol, cs := range closes {
		out := make([]market.Candle, len(cs))
		for i, c := range cs {
			out[i] = market.Candle{
				OpenTime: t0.Add(time.Duration(i) * time.Hour),
				Open:     c, High: c + 0.1, Low: c - 0.1, Close: c, Volume: 1,
			}
		}
		candles[symbol] = out
	}
	return stream.NewHistory(candles)
}

func TestSessionProcessesFeedToCompletion(t *testing.T) {
	t.Parallel()

	e, sink := newTestEngine(t, Options{
		Mode: ModeLive,
		NewStrategy: func() strategy.Strategy {
			return &script{
				enterOn:    func(n int) bool { return n == 1 },
				exitOn:     func(n int) bool { return n == 3 },
				exitReason: "ScriptExit",
			}
		},
	})

	feed := historyFromCloses("BTCUSDT", []float64{100, 100, 100, 100})
	day, err := risk.NewDayManager("UTC")
	require.NoError(t, err)

	s := NewSession(e, feed, day)
	require.NoError(t, s.Run(context.Background()))

	require.Len(t, sink.opened, 1)
	require.Len(t, sink.closed, 1)
	assert.Equal(t, "ScriptExit", sink.closed[0].Reason)
	assert.Equal(t, 0, e.Governor().OpenTrades())
}

func TestSessionCancelSuspendsEntries(t *testing.T) {
	t.Parallel()

	cj := &countingJournal{}
	e, _ := newTestEngine(t, Options{
		Mode:    ModeLive,
		Journal: cj,
		NewStrategy: func() strategy.Strategy {
			return &script{}
		},
	})

	feed := historyFromCloses("BTCUSDT", []float64{100, 100, 100})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSession(e, feed, nil)
	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// Shutdown flushed a final equity snapshot even with nothing traded.
	assert.Positive(t, cj.equityCount())
}

func TestSessionRoutesSymbolsIndependently(t *testing.T) {
	t.Parallel()

	e, sink := newTestEngine(t, Options{
		Mode: ModeLive,
		NewStrategy: func() strategy.Strategy {
			return &script{enterOn: func(n int) bool { return n == 1 }}
		},
	})

	t0 := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	feed := multiSymbolHistory(t0, map[string][]float64{
		"BTCUSDT": {100, 100},
		"ETHUSDT": {50, 50},
	})

	s := NewSession(e, feed, nil)
	require.NoError(t, s.Run(context.Background()))

	// Both symbols entered; the shared governor registered both.
	assert.Len(t, sink.opened, 2)
	assert.Equal(t, 2, e.Governor().OpenTrades())
}
