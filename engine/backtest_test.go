package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradekit/journal"
	"github.com/rustyeddy/tradekit/market"
	"github.com/rustyeddy/tradekit/risk"
	"github.com/rustyeddy/tradekit/strategy"
	"github.com/rustyeddy/tradekit/stream"
)

func historyFromCloses(symbol string, closes []float64) *stream.History {
	t0 := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]market.Candle, len(closes))
	for i, c := range closes {
		candles[i] = market.Candle{
			OpenTime: t0.Add(time.Duration(i) * time.Hour),
			Open:     c, High: c + 0.1, Low: c - 0.1, Close: c, Volume: 1,
		}
	}
	return stream.NewHistory(map[string][]market.Candle{symbol: candles})
}

func TestBacktestLiquidatesAndSummarizes(t *testing.T) {
	t.Parallel()

	jrn, err := journal.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer jrn.Close()

	e, sink := newTestEngine(t, Options{
		Mode:     ModeBacktest,
		Journal:  jrn,
		Interval: "1h",
		NewStrategy: func() strategy.Strategy {
			// Enter on the second bar, never exit by signal: the runner
			// must liquidate at the end of data.
			return &script{enterOn: func(n int) bool { return n == 2 }}
		},
	})

	res, err := e.Backtest(context.Background(), historyFromCloses("BTCUSDT", []float64{100, 100, 100, 100}))
	require.NoError(t, err)

	require.Len(t, sink.closed, 1)
	assert.Equal(t, ReasonEndOfData, sink.closed[0].Reason)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 1, res.Trades)
	assert.Equal(t, 1, res.Losses, "flat exit with no fees still counts as non-win")
	assert.InDelta(t, 1000, res.StartBalance, 1e-9)
	assert.InDelta(t, 1000, res.EndBalance, 1e-9)
	assert.Equal(t, res.Start, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, res.End, time.Date(2025, 4, 1, 3, 0, 0, 0, time.UTC))

	// Summary landed in the journal.
	runs, err := jrn.Runs(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].RunID)
	assert.Equal(t, "script", runs[0].Strategy)
	assert.Equal(t, "BTCUSDT", runs[0].Symbols)
	assert.Equal(t, 1, runs[0].Trades)
}

func TestBacktestComputesDrawdownAndWinrate(t *testing.T) {
	t.Parallel()

	e, sink := newTestEngine(t, Options{
		Mode: ModeBacktest,
		NewStrategy: func() strategy.Strategy {
			return &script{enterOn: func(n int) bool { return n == 1 }}
		},
	})

	// Entry at 100 with stop 98; the drop to 97 stops out for -10.
	res, err := e.Backtest(context.Background(), historyFromCloses("BTCUSDT", []float64{100, 97, 97, 97}))
	require.NoError(t, err)

	require.Len(t, sink.closed, 1)
	assert.Equal(t, 1, res.Trades)
	assert.Equal(t, 0, res.Wins)
	assert.Equal(t, 1, res.Losses)
	assert.InDelta(t, 0, res.WinRate, 1e-9)
	assert.InDelta(t, -10, res.NetPnL, 1e-9)
	assert.InDelta(t, 990, res.EndBalance, 1e-9)
	assert.InDelta(t, -1.0, res.ReturnPct, 1e-9)
	assert.InDelta(t, 0.01, res.MaxDrawdown, 1e-3)
	assert.NotEmpty(t, res.String())
}

func TestBacktestRollsDailyLimitsOver(t *testing.T) {
	t.Parallel()

	// Three bars on day one, one bar on day two.
	times := []time.Time{
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 1, 1, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 1, 2, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
	}
	candles := make([]market.Candle, len(times))
	for i, ts := range times {
		candles[i] = market.Candle{OpenTime: ts, Open: 100, High: 100.1, Low: 99.9, Close: 100, Volume: 1}
	}
	feed := stream.NewHistory(map[string][]market.Candle{"BTCUSDT": candles})

	day, err := risk.NewDayManager("UTC")
	require.NoError(t, err)

	limits := testLimits()
	limits.MaxDailyTrades = 1
	e, sink := newTestEngine(t, Options{
		Mode:     ModeBacktest,
		Governor: risk.NewGovernor(limits),
		Days:     day,
		NewStrategy: func() strategy.Strategy {
			return &script{
				enterOn:    func(n int) bool { return true },
				exitOn:     func(n int) bool { return n == 2 },
				exitReason: "ScriptExit",
			}
		},
	})

	_, err = e.Backtest(context.Background(), feed)
	require.NoError(t, err)

	// Day one: open, close, then the third bar's entry is denied by the
	// daily trade ceiling. Day two's boundary resets it and a second
	// position opens.
	assert.Len(t, sink.opened, 2)
	require.NotEmpty(t, sink.rejected)
	assert.Equal(t, risk.ReasonDailyTrades, sink.rejected[0])
}

// brokenPrep fails indicator preparation after a set number of bars.
type brokenPrep struct {
	script
	failAt int
}

func (b *brokenPrep) Prepare(f *market.Frame) error {
	if f.Len() >= b.failAt {
		return fmt.Errorf("indicator blew up at bar %d", f.Len())
	}
	return b.script.Prepare(f)
}

func TestBacktestErrorStopsFeed(t *testing.T) {
	t.Parallel()

	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100
	}
	feed := historyFromCloses("BTCUSDT", closes)

	e, _ := newTestEngine(t, Options{
		Mode: ModeBacktest,
		NewStrategy: func() strategy.Strategy {
			return &brokenPrep{failAt: 3}
		},
	})

	_, err := e.Backtest(context.Background(), feed)
	require.Error(t, err)

	// The feed goroutine must observe the cancellation and close its
	// channel instead of blocking on the remaining bars forever.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-feed.Bars():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("feed still delivering after backtest returned")
		}
	}
}

func TestBacktestMultiSymbolSharesBudget(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	mk := func(closes ...float64) []market.Candle {
		out := make([]market.Candle, len(closes))
		for i, c := range closes {
			out[i] = market.Candle{
				OpenTime: t0.Add(time.Duration(i) * time.Hour),
				Open:     c, High: c + 0.1, Low: c - 0.1, Close: c, Volume: 1,
			}
		}
		return out
	}
	feed := stream.NewHistory(map[string][]market.Candle{
		"BTCUSDT": mk(100, 100, 100),
		"ETHUSDT": mk(50, 50, 50),
	})

	limits := testLimits()
	limits.MaxOpenTrades = 1
	e, sink := newTestEngine(t, Options{
		Mode:     ModeBacktest,
		Governor: risk.NewGovernor(limits),
		NewStrategy: func() strategy.Strategy {
			return &script{enterOn: func(n int) bool { return true }}
		},
	})

	_, err := e.Backtest(context.Background(), feed)
	require.NoError(t, err)

	// Only one position fits; the other symbol is rejected each bar until
	// liquidation frees the slot at the end.
	assert.Len(t, sink.opened, 1)
	assert.NotEmpty(t, sink.rejected)
}
