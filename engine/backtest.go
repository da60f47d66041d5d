package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rustyeddy/tradekit/journal"
	"github.com/rustyeddy/tradekit/stream"
)

// Result summarizes one backtest run.
type Result struct {
	RunID        string
	Start        time.Time
	End          time.Time
	StartBalance float64
	EndBalance   float64
	Trades       int
	Wins         int
	Losses       int
	NetPnL       float64
	TotalFees    float64
	ReturnPct    float64
	WinRate      float64
	ProfitFactor float64
	MaxDrawdown  float64 // fraction of peak equity, e.g. 0.12
}

// runRecorder is implemented by journals that store run summaries.
type runRecorder interface {
	RecordRun(journal.RunSummary) error
}

// Backtest replays a historical feed through the engine, liquidates any
// remaining positions at the last seen price, and returns the run summary.
// The replay is deterministic: bars arrive merged by time and are processed
// one at a time.
func (e *Engine) Backtest(ctx context.Context, feed stream.Feed) (Result, error) {
	res := Result{
		RunID:        uuid.NewString(),
		StartBalance: e.opts.Ledger.Balance(),
	}

	// Cancelling on an early return unblocks the feed goroutine.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- feed.Run(ctx) }()

	peak := res.StartBalance
	var lastBarTime time.Time
	for bar := range feed.Bars() {
		if res.Start.IsZero() {
			res.Start = bar.OpenTime
		}
		lastBarTime = bar.OpenTime

		if e.opts.Days != nil {
			e.opts.Days.RolloverIfNeeded(bar.OpenTime, e.opts.Governor)
		}
		if err := e.Step(ctx, bar); err != nil {
			return res, fmt.Errorf("backtest: %w", err)
		}

		eq := e.Equity()
		if eq > peak {
			peak = eq
		}
		if peak > 0 {
			if dd := (peak - eq) / peak; dd > res.MaxDrawdown {
				res.MaxDrawdown = dd
			}
		}
	}
	if err := <-errc; err != nil {
		return res, fmt.Errorf("backtest feed: %w", err)
	}

	if err := e.CloseAll(ctx, ReasonEndOfData, lastBarTime); err != nil {
		return res, fmt.Errorf("backtest: %w", err)
	}

	res.End = lastBarTime
	res.EndBalance = e.opts.Ledger.Balance()
	if res.StartBalance > 0 {
		res.ReturnPct = (res.EndBalance - res.StartBalance) / res.StartBalance * 100
	}

	var grossWins, grossLosses float64
	for _, rec := range e.opts.Ledger.History() {
		res.Trades++
		res.NetPnL += rec.NetPnL
		res.TotalFees += rec.Fees
		if rec.NetPnL > 0 {
			res.Wins++
			grossWins += rec.NetPnL
		} else {
			res.Losses++
			grossLosses += -rec.NetPnL
		}
	}
	if res.Trades > 0 {
		res.WinRate = float64(res.Wins) / float64(res.Trades)
	}
	if grossLosses > 0 {
		res.ProfitFactor = grossWins / grossLosses
	} else if grossWins > 0 {
		res.ProfitFactor = grossWins
	}

	if rr, ok := e.opts.Journal.(runRecorder); ok {
		if err := rr.RecordRun(e.runSummary(res)); err != nil {
			log.Printf("backtest: record run %s: %v", res.RunID, err)
		}
	}
	return res, nil
}

func (e *Engine) runSummary(res Result) journal.RunSummary {
	return journal.RunSummary{
		RunID:        res.RunID,
		Created:      time.Now().UTC(),
		Strategy:     e.opts.NewStrategy().Name(),
		Symbols:      strings.Join(e.Symbols(), ","),
		Interval:     string(e.opts.Interval),
		Start:        res.Start,
		End:          res.End,
		StartBalance: res.StartBalance,
		EndBalance:   res.EndBalance,
		Trades:       res.Trades,
		Wins:         res.Wins,
		Losses:       res.Losses,
		NetPnL:       res.NetPnL,
		ReturnPct:    res.ReturnPct,
		WinRate:      res.WinRate,
		ProfitFactor: res.ProfitFactor,
		MaxDDPct:     res.MaxDrawdown * 100,
	}
}

// String renders the summary for the CLI.
func (r Result) String() string {
	return fmt.Sprintf(
		"run %s\n%s -> %s\nbalance %.2f -> %.2f (%.2f%%)\ntrades %d (W%d/L%d) winrate %.1f%%\nnet pnl %.2f fees %.2f profit factor %.2f max drawdown %.1f%%",
		r.RunID, r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339),
		r.StartBalance, r.EndBalance, r.ReturnPct,
		r.Trades, r.Wins, r.Losses, r.WinRate*100,
		r.NetPnL, r.TotalFees, r.ProfitFactor, r.MaxDrawdown*100)
}
