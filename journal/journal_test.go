package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradekit/ledger"
)

func sampleTrade(id, symbol string, net float64) ledger.TradeRecord {
	opened := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return ledger.TradeRecord{
		TradeID:    id,
		Symbol:     symbol,
		EntryPrice: 100,
		ExitPrice:  100 + net,
		Quantity:   1,
		GrossPnL:   net + 0.2,
		Fees:       0.2,
		NetPnL:     net,
		Reason:     "StopLoss",
		OpenedAt:   opened,
		ClosedAt:   opened.Add(2 * time.Hour),
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	j, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer j.Close()

	first := sampleTrade("t1", "BTCUSDT", 5)
	second := sampleTrade("t2", "ETHUSDT", -3)
	second.ClosedAt = first.ClosedAt.Add(time.Hour)
	require.NoError(t, j.RecordTrade(first))
	require.NoError(t, j.RecordTrade(second))

	trades, err := j.Trades(0)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "t2", trades[0].TradeID, "newest first")
	assert.InDelta(t, 5.2, trades[1].GrossPnL, 1e-9)
	assert.InDelta(t, 0.2, trades[1].Fees, 1e-9)

	trades, err = j.Trades(1)
	require.NoError(t, err)
	assert.Len(t, trades, 1)

	n, wins, net, fees, err := j.Summary()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, wins)
	assert.InDelta(t, 2.0, net, 1e-9)
	assert.InDelta(t, 0.4, fees, 1e-9)
}

func TestSQLiteDuplicateTradeID(t *testing.T) {
	t.Parallel()

	j, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.RecordTrade(sampleTrade("t1", "BTCUSDT", 5)))
	assert.Error(t, j.RecordTrade(sampleTrade("t1", "BTCUSDT", 5)))
}

func TestSQLiteEquityCurve(t *testing.T) {
	t.Parallel()

	j, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer j.Close()

	t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, j.RecordEquity(EquitySnapshot{
			Time:    t0.Add(time.Duration(i) * time.Hour),
			Balance: 1000 + float64(i),
			Equity:  1000 + float64(i),
		}))
	}

	curve, err := j.EquityCurve(t0.Add(time.Hour), t0.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, curve, 3)
	assert.InDelta(t, 1001, curve[0].Equity, 1e-9)
	assert.InDelta(t, 1003, curve[2].Equity, 1e-9)
}

func TestSQLiteRuns(t *testing.T) {
	t.Parallel()

	j, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer j.Close()

	r := RunSummary{
		RunID:        "run-1",
		Created:      time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		Strategy:     "ema-rsi(9,21,rsi14)",
		Symbols:      "BTCUSDT",
		Interval:     "1h",
		Start:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		StartBalance: 1000,
		EndBalance:   1080,
		Trades:       12,
		Wins:         7,
		Losses:       5,
		NetPnL:       80,
		ReturnPct:    8,
		WinRate:      7.0 / 12.0,
		ProfitFactor: 1.9,
		MaxDDPct:     4.2,
	}
	require.NoError(t, j.RecordRun(r))

	runs, err := j.Runs(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, r.RunID, runs[0].RunID)
	assert.Equal(t, r.Trades, runs[0].Trades)
	assert.InDelta(t, r.ProfitFactor, runs[0].ProfitFactor, 1e-9)
}

func TestCSVWritesRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := OpenCSV(dir)
	require.NoError(t, err)

	require.NoError(t, j.RecordTrade(sampleTrade("t1", "BTCUSDT", 5)))
	require.NoError(t, j.RecordEquity(EquitySnapshot{
		Time:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Balance: 1000,
		Equity:  1005,
	}))
	require.NoError(t, j.Close())

	f, err := os.Open(filepath.Join(dir, "trades.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "trade_id", rows[0][0])
	assert.Equal(t, "t1", rows[1][0])
	assert.Equal(t, "5", rows[1][7])

	ef, err := os.Open(filepath.Join(dir, "equity.csv"))
	require.NoError(t, err)
	defer ef.Close()
	erows, err := csv.NewReader(ef).ReadAll()
	require.NoError(t, err)
	require.Len(t, erows, 2)
	assert.Equal(t, "1005", erows[1][2])
}

func TestNopJournal(t *testing.T) {
	t.Parallel()

	var j Journal = Nop{}
	assert.NoError(t, j.RecordTrade(ledger.TradeRecord{}))
	assert.NoError(t, j.RecordEquity(EquitySnapshot{}))
	assert.NoError(t, j.Close())
}
