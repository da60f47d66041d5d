package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/tradekit/ledger"
)

// SQLite stores trades, equity snapshots and run summaries in a single
// sqlite3 database file. ":memory:" works for tests.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(rec ledger.TradeRecord) error {
	_, err := j.db.Exec(`INSERT INTO trades
		(trade_id, symbol, entry_price, exit_price, quantity, gross_pnl, fees, net_pnl, reason, opened_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TradeID, rec.Symbol, rec.EntryPrice, rec.ExitPrice, rec.Quantity,
		rec.GrossPnL, rec.Fees, rec.NetPnL, rec.Reason, rec.OpenedAt, rec.ClosedAt)
	if err != nil {
		return fmt.Errorf("record trade %s: %w", rec.TradeID, err)
	}
	return nil
}

func (j *SQLite) RecordEquity(s EquitySnapshot) error {
	_, err := j.db.Exec(`INSERT INTO equity (time, balance, equity) VALUES (?, ?, ?)`,
		s.Time, s.Balance, s.Equity)
	if err != nil {
		return fmt.Errorf("record equity: %w", err)
	}
	return nil
}

func (j *SQLite) RecordRun(r RunSummary) error {
	_, err := j.db.Exec(`INSERT INTO runs
		(run_id, created, strategy, symbols, interval, start_time, end_time, start_balance, end_balance,
		 trades, wins, losses, net_pnl, return_pct, win_rate, profit_factor, max_dd_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Strategy, r.Symbols, r.Interval, r.Start, r.End,
		r.StartBalance, r.EndBalance, r.Trades, r.Wins, r.Losses,
		r.NetPnL, r.ReturnPct, r.WinRate, r.ProfitFactor, r.MaxDDPct)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.RunID, err)
	}
	return nil
}

// Trades returns the most recent trades, newest first, up to limit.
// A limit <= 0 returns everything.
func (j *SQLite) Trades(limit int) ([]ledger.TradeRecord, error) {
	q := `SELECT trade_id, symbol, entry_price, exit_price, quantity,
		gross_pnl, fees, net_pnl, reason, opened_at, closed_at
		FROM trades ORDER BY closed_at DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = j.db.Query(q+` LIMIT ?`, limit)
	} else {
		rows, err = j.db.Query(q)
	}
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []ledger.TradeRecord
	for rows.Next() {
		var rec ledger.TradeRecord
		if err := rows.Scan(&rec.TradeID, &rec.Symbol, &rec.EntryPrice, &rec.ExitPrice,
			&rec.Quantity, &rec.GrossPnL, &rec.Fees, &rec.NetPnL, &rec.Reason,
			&rec.OpenedAt, &rec.ClosedAt); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Runs returns stored backtest summaries, newest first.
func (j *SQLite) Runs(limit int) ([]RunSummary, error) {
	q := `SELECT run_id, created, strategy, symbols, interval, start_time, end_time,
		start_balance, end_balance, trades, wins, losses, net_pnl,
		return_pct, win_rate, profit_factor, max_dd_pct
		FROM runs ORDER BY created DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = j.db.Query(q+` LIMIT ?`, limit)
	} else {
		rows, err = j.db.Query(q)
	}
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.Created, &r.Strategy, &r.Symbols, &r.Interval,
			&r.Start, &r.End, &r.StartBalance, &r.EndBalance, &r.Trades, &r.Wins,
			&r.Losses, &r.NetPnL, &r.ReturnPct, &r.WinRate, &r.ProfitFactor,
			&r.MaxDDPct); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summary aggregates the whole trades table.
func (j *SQLite) Summary() (trades, wins int, netPnL, totalFees float64, err error) {
	row := j.db.QueryRow(`SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN net_pnl > 0 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(net_pnl), 0), COALESCE(SUM(fees), 0) FROM trades`)
	if err = row.Scan(&trades, &wins, &netPnL, &totalFees); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("summarize trades: %w", err)
	}
	return trades, wins, netPnL, totalFees, nil
}

// EquityCurve returns snapshots between from and to, oldest first.
func (j *SQLite) EquityCurve(from, to time.Time) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`SELECT time, balance, equity FROM equity
		WHERE time >= ? AND time <= ? ORDER BY time ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query equity: %w", err)
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var s EquitySnapshot
		if err := rows.Scan(&s.Time, &s.Balance, &s.Equity); err != nil {
			return nil, fmt.Errorf("scan equity: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
