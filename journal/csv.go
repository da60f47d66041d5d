package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rustyeddy/tradekit/ledger"
)

// CSV writes trades.csv and equity.csv under a directory. Rows are flushed
// on every record so a crashed session still leaves usable files.
type CSV struct {
	mu         sync.Mutex
	tradesFile *os.File
	equityFile *os.File
	trades     *csv.Writer
	equity     *csv.Writer
}

func OpenCSV(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir %s: %w", dir, err)
	}

	tf, err := os.Create(filepath.Join(dir, "trades.csv"))
	if err != nil {
		return nil, fmt.Errorf("create trades.csv: %w", err)
	}
	ef, err := os.Create(filepath.Join(dir, "equity.csv"))
	if err != nil {
		tf.Close()
		return nil, fmt.Errorf("create equity.csv: %w", err)
	}

	j := &CSV{
		tradesFile: tf,
		equityFile: ef,
		trades:     csv.NewWriter(tf),
		equity:     csv.NewWriter(ef),
	}

	j.trades.Write([]string{"trade_id", "symbol", "entry_price", "exit_price",
		"quantity", "gross_pnl", "fees", "net_pnl", "reason", "opened_at", "closed_at"})
	j.equity.Write([]string{"time", "balance", "equity"})
	j.trades.Flush()
	j.equity.Flush()
	if err := j.trades.Error(); err != nil {
		j.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return j, nil
}

func (j *CSV) RecordTrade(rec ledger.TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.trades.Write([]string{
		rec.TradeID,
		rec.Symbol,
		fmtFloat(rec.EntryPrice),
		fmtFloat(rec.ExitPrice),
		fmtFloat(rec.Quantity),
		fmtFloat(rec.GrossPnL),
		fmtFloat(rec.Fees),
		fmtFloat(rec.NetPnL),
		rec.Reason,
		rec.OpenedAt.UTC().Format(time.RFC3339),
		rec.ClosedAt.UTC().Format(time.RFC3339),
	})
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return fmt.Errorf("write trade %s: %w", rec.TradeID, err)
	}
	return nil
}

func (j *CSV) RecordEquity(s EquitySnapshot) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.equity.Write([]string{
		s.Time.UTC().Format(time.RFC3339),
		fmtFloat(s.Balance),
		fmtFloat(s.Equity),
	})
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return fmt.Errorf("write equity: %w", err)
	}
	return nil
}

func (j *CSV) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.trades.Flush()
	j.equity.Flush()
	err := j.tradesFile.Close()
	if e := j.equityFile.Close(); err == nil {
		err = e
	}
	return err
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
