// Package engine drives the trade lifecycle: it feeds closed bars through a
// strategy, sizes and opens positions under the risk governor, trails stops,
// and realizes exits through the ledger.
//
// Stop checks differ by mode. Backtests treat the bar low as the worst price
// seen and fill stop exits at the stop price; live sessions only know the
// latest price, so stops are checked and filled against it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rustyeddy/tradekit/broker"
	"github.com/rustyeddy/tradekit/journal"
	"github.com/rustyeddy/tradekit/ledger"
	"github.com/rustyeddy/tradekit/market"
	"github.com/rustyeddy/tradekit/metrics"
	"github.com/rustyeddy/tradekit/pkg/id"
	"github.com/rustyeddy/tradekit/risk"
	"github.com/rustyeddy/tradekit/strategy"
)

// Mode selects backtest or live stop semantics.
type Mode int

const (
	ModeBacktest Mode = iota
	ModeLive
)

// Exit reasons stamped on trade records.
const (
	ReasonStopLoss   = "StopLoss"
	ReasonTakeProfit = "TakeProfit"
	ReasonEndOfData  = "EndOfData"
	ReasonShutdown   = "Shutdown"
)

const defaultMaxFrame = 500

// Options wires an engine. Governor, Ledger, Broker and NewStrategy are
// required; everything else has a usable default.
type Options struct {
	Governor    *risk.Governor
	Ledger      *ledger.Ledger
	Broker      broker.Broker
	Journal     journal.Journal
	Sink        EventSink
	NewStrategy func() strategy.Strategy

	Trail     risk.TrailingStop
	Fractions risk.FractionProvider
	// Days rolls daily limits over at day boundaries during backtests.
	// Live sessions drive their own rollover on the feed routing goroutine.
	Days    *risk.DayManager
	FeeRate float64
	// Initial stop distance in ATRs below entry.
	StopATRMult float64
	// Profit target in multiples of initial risk. 0 disables the target.
	TargetRR float64

	Mode     Mode
	Interval market.Interval
	MaxFrame int
}

// outcomeRecorder is implemented by fraction providers that learn from
// realized results.
type outcomeRecorder interface {
	Record(symbol string, win bool)
}

type symbolState struct {
	frame *market.Frame
	strat strategy.Strategy
}

// Engine is safe for concurrent Step calls on different symbols; state for
// one symbol must be driven by one goroutine at a time.
type Engine struct {
	opts      Options
	mu        sync.Mutex
	states    map[string]*symbolState
	lastPrice map[string]float64
	suspended atomic.Bool
}

func New(opts Options) (*Engine, error) {
	if opts.Governor == nil || opts.Ledger == nil || opts.Broker == nil || opts.NewStrategy == nil {
		return nil, errors.New("engine: governor, ledger, broker and strategy are required")
	}
	if err := opts.Trail.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if opts.Journal == nil {
		opts.Journal = journal.Nop{}
	}
	if opts.Sink == nil {
		opts.Sink = NopSink{}
	}
	if opts.Fractions == nil {
		opts.Fractions = risk.StaticFraction(0.01)
	}
	if opts.StopATRMult <= 0 {
		opts.StopATRMult = 2
	}
	if opts.MaxFrame <= 0 {
		opts.MaxFrame = defaultMaxFrame
	}
	return &Engine{
		opts:      opts,
		states:    make(map[string]*symbolState),
		lastPrice: make(map[string]float64),
	}, nil
}

// SuspendEntries stops the engine from opening new positions. Open positions
// keep being managed. Used during graceful shutdown.
func (e *Engine) SuspendEntries() { e.suspended.Store(true) }

func (e *Engine) Governor() *risk.Governor { return e.opts.Governor }
func (e *Engine) Ledger() *ledger.Ledger { return e.opts.Ledger }
func (e *Engine) Days() *risk.DayManager { return e.opts.Days }

func (e *Engine) state(symbol string) *symbolState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[symbol]
	if !ok {
		st = &symbolState{frame: market.NewFrame(), strat: e.opts.NewStrategy()}
		e.states[symbol] = st
	}
	return st
}

func (e *Engine) markPrice(symbol string, price float64) {
	e.mu.Lock()
	e.lastPrice[symbol] = price
	e.mu.Unlock()
}

func (e *Engine) marks() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]float64, len(e.lastPrice))
	for s, p := range e.lastPrice {
		out[s] = p
	}
	return out
}

// Symbols returns the symbols the engine has seen bars for.
func (e *Engine) Symbols() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.states))
	for s := range e.states {
		out = append(out, s)
	}
	return out
}

// Step processes one closed bar: indicators, stop management, exits, and
// possibly a new entry. Unclosed bars are ignored.
func (e *Engine) Step(ctx context.Context, bar market.Bar) error {
	if !bar.Closed {
		return nil
	}

	st := e.state(bar.Symbol)
	st.frame.Append(bar.Candle)
	st.frame.Trim(e.opts.MaxFrame)
	if err := st.strat.Prepare(st.frame); err != nil {
		return fmt.Errorf("prepare %s: %w", bar.Symbol, err)
	}
	e.markPrice(bar.Symbol, bar.Close)
	metrics.BarsProcessed.WithLabelValues(bar.Symbol).Inc()

	if p, ok := e.opts.Ledger.Position(bar.Symbol); ok {
		if err := e.manage(ctx, st, p, bar); err != nil {
			return err
		}
	} else if !e.suspended.Load() && st.strat.ShouldEnter(st.frame) {
		if err := e.tryEnter(ctx, st, bar); err != nil {
			return err
		}
	}

	e.publishEquity(bar.OpenTime)
	return nil
}

// Tick applies stop management to an open position using an in-progress bar.
// Strategy signals and entries only fire on closed bars.
func (e *Engine) Tick(ctx context.Context, bar market.Bar) error {
	p, ok := e.opts.Ledger.Position(bar.Symbol)
	if !ok {
		return nil
	}
	st := e.state(bar.Symbol)
	e.markPrice(bar.Symbol, bar.Close)

	e.updateTrail(st, p, bar.Close)
	if bar.Close <= p.StopPrice {
		return e.closePosition(ctx, p, bar.Close, ReasonStopLoss, bar.OpenTime)
	}
	if p.TargetPrice > 0 && bar.Close >= p.TargetPrice {
		return e.closePosition(ctx, p, bar.Close, ReasonTakeProfit, bar.OpenTime)
	}
	return nil
}

func (e *Engine) updateTrail(st *symbolState, p *ledger.Position, price float64) {
	atr, atrOK := st.frame.LastValue(strategy.ColATR)
	old := p.StopPrice
	e.opts.Trail.Update(p, price, atr, atrOK)
	if p.StopPrice > old {
		e.opts.Sink.StopAdvanced(p.Symbol, old, p.StopPrice)
	}
}

// manage trails the stop and checks exits in priority order: protective stop
// first, then the strategy's exit signal, then the profit target.
func (e *Engine) manage(ctx context.Context, st *symbolState, p *ledger.Position, bar market.Bar) error {
	e.updateTrail(st, p, bar.Close)

	if e.opts.Mode == ModeBacktest {
		if bar.Low <= p.StopPrice {
			return e.closePosition(ctx, p, p.StopPrice, ReasonStopLoss, bar.OpenTime)
		}
	} else if bar.Close <= p.StopPrice {
		return e.closePosition(ctx, p, bar.Close, ReasonStopLoss, bar.OpenTime)
	}

	if reason, exit := st.strat.ShouldExit(st.frame, p); exit {
		return e.closePosition(ctx, p, bar.Close, reason, bar.OpenTime)
	}

	if p.TargetPrice > 0 {
		if e.opts.Mode == ModeBacktest {
			if bar.High >= p.TargetPrice {
				return e.closePosition(ctx, p, p.TargetPrice, ReasonTakeProfit, bar.OpenTime)
			}
		} else if bar.Close >= p.TargetPrice {
			return e.closePosition(ctx, p, bar.Close, ReasonTakeProfit, bar.OpenTime)
		}
	}
	return nil
}

func (e *Engine) tryEnter(ctx context.Context, st *symbolState, bar market.Bar) error {
	atr, ok := st.frame.LastValue(strategy.ColATR)
	if !ok {
		return nil
	}

	entry := bar.Close
	stop := entry - atr*e.opts.StopATRMult
	if stop <= 0 {
		return nil
	}

	fraction := e.opts.Fractions.Fraction(bar.Symbol)
	qty, err := risk.Size(e.opts.Ledger.Balance(), fraction, entry, stop, e.opts.FeeRate)
	if err != nil {
		log.Printf("engine: sizing %s skipped: %v", bar.Symbol, err)
		return nil
	}
	if qty <= 0 {
		return nil
	}

	tradeID := id.NewTradeID()
	d := e.opts.Governor.TryOpen(tradeID, bar.Symbol, fraction)
	if !d.Allowed {
		metrics.EntriesRejected.WithLabelValues(d.Reason).Inc()
		e.opts.Sink.EntryRejected(bar.Symbol, d.Reason)
		return nil
	}

	fill, err := e.opts.Broker.MarketBuy(ctx, bar.Symbol, qty, entry)
	if err != nil {
		e.opts.Governor.Close(tradeID, bar.Symbol, 0)
		return fmt.Errorf("buy %s: %w", bar.Symbol, err)
	}
	metrics.OrdersPlaced.WithLabelValues(bar.Symbol, "buy").Inc()

	var target float64
	if e.opts.TargetRR > 0 {
		target = fill.Price + e.opts.TargetRR*(fill.Price-stop)
	}

	p, err := e.opts.Ledger.Open(ledger.OpenRequest{
		TradeID:      tradeID,
		Symbol:       bar.Symbol,
		EntryPrice:   fill.Price,
		Quantity:     fill.Quantity,
		EntryFee:     fill.Fee,
		StopPrice:    stop,
		TargetPrice:  target,
		RiskFraction: fraction,
		OpenedAt:     bar.OpenTime,
	})
	if err != nil {
		e.opts.Governor.Close(tradeID, bar.Symbol, 0)
		return fmt.Errorf("open %s: %w", bar.Symbol, err)
	}

	e.opts.Sink.PositionOpened(*p)
	return nil
}

func (e *Engine) closePosition(ctx context.Context, p *ledger.Position, refPrice float64, reason string, at time.Time) error {
	fill, err := e.opts.Broker.MarketSell(ctx, p.Symbol, p.Quantity, refPrice)
	if err != nil {
		return fmt.Errorf("sell %s: %w", p.Symbol, err)
	}
	metrics.OrdersPlaced.WithLabelValues(p.Symbol, "sell").Inc()

	rec, err := e.opts.Ledger.Close(p.TradeID, fill.Price, fill.Fee, reason, at)
	if err != nil {
		return fmt.Errorf("close %s: %w", p.Symbol, err)
	}

	e.opts.Governor.Close(rec.TradeID, rec.Symbol, rec.NetPnL)
	if r, ok := e.opts.Fractions.(outcomeRecorder); ok {
		r.Record(rec.Symbol, rec.NetPnL > 0)
	}
	if err := e.opts.Journal.RecordTrade(rec); err != nil {
		log.Printf("engine: journal trade %s: %v", rec.TradeID, err)
	}
	metrics.TradesClosed.WithLabelValues(rec.Symbol, rec.Reason).Inc()
	e.opts.Sink.PositionClosed(rec)
	return nil
}

// CloseAll liquidates every open position at its last seen price.
func (e *Engine) CloseAll(ctx context.Context, reason string, at time.Time) error {
	marks := e.marks()
	for _, p := range e.opts.Ledger.OpenPositions() {
		price, ok := marks[p.Symbol]
		if !ok {
			price = p.EntryPrice
		}
		if err := e.closePosition(ctx, p, price, reason, at); err != nil {
			return err
		}
	}
	e.publishEquity(at)
	return nil
}

// Equity marks open positions to last prices and returns account value.
func (e *Engine) Equity() float64 {
	return e.opts.Ledger.Equity(e.marks())
}

func (e *Engine) publishEquity(at time.Time) {
	eq := e.Equity()
	metrics.Equity.Set(eq)
	metrics.CommittedRisk.Set(e.opts.Governor.CommittedRisk())
	metrics.DailyLoss.Set(e.opts.Governor.DailyLoss())
	metrics.OpenPositions.Set(float64(len(e.opts.Ledger.OpenPositions())))

	if err := e.opts.Journal.RecordEquity(journal.EquitySnapshot{
		Time:    at,
		Balance: e.opts.Ledger.Balance(),
		Equity:  eq,
	}); err != nil {
		log.Printf("engine: journal equity: %v", err)
	}
}

// Flush writes a final equity snapshot and logs every position still open so
// an operator can reconcile them after shutdown.
func (e *Engine) Flush(at time.Time) {
	for _, p := range e.opts.Ledger.OpenPositions() {
		log.Printf("engine: open at shutdown: %s trade=%s entry=%.6f qty=%.6f stop=%.6f",
			p.Symbol, p.TradeID, p.EntryPrice, p.Quantity, p.StopPrice)
	}
	e.publishEquity(at)
}
