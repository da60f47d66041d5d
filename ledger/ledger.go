// Package ledger owns the authoritative state of open positions, the cash
// balance, and the append-only realized trade history. Positions are created
// and destroyed only here; the engine and the trailing stop controller
// mutate stop state through the pointer the ledger hands out.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrDuplicatePosition means Open was called for a symbol that already
	// has an open position. Indicates an engine logic error.
	ErrDuplicatePosition = errors.New("position already open")

	// ErrUnknownPosition means Close was called with a trade id that has no
	// open position. Always a caller bug: the engine and governor have
	// desynchronized. Never a recoverable runtime condition.
	ErrUnknownPosition = errors.New("no open position for trade")
)

// Position is one open spot holding. Quantity is always > 0 while open.
type Position struct {
	TradeID           string
	Symbol            string
	EntryPrice        float64
	Quantity          float64
	StopPrice         float64
	InitialStop       float64
	TargetPrice       float64 // 0 disables the profit target
	BreakevenPromoted bool
	EntryFee          float64
	RiskFraction      float64
	OpenedAt          time.Time
}

// InitialRisk is the per-unit risk distance the position was opened with.
func (p *Position) InitialRisk() float64 {
	return p.EntryPrice - p.InitialStop
}

// TradeRecord describes one closed trade. Records are created only at close
// time and never mutated afterwards.
type TradeRecord struct {
	TradeID    string
	Symbol     string
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	GrossPnL   float64
	Fees       float64
	NetPnL     float64
	Reason     string
	OpenedAt   time.Time
	ClosedAt   time.Time
}

// OpenRequest carries everything the ledger needs to create a position.
type OpenRequest struct {
	TradeID      string
	Symbol       string
	EntryPrice   float64
	Quantity     float64
	EntryFee     float64
	StopPrice    float64
	TargetPrice  float64
	RiskFraction float64
	OpenedAt     time.Time
}

// Ledger tracks balance, open positions and realized history for one
// session. All methods are safe for concurrent use; balance debits and
// credits are serialized by the ledger's lock.
type Ledger struct {
	mu        sync.Mutex
	balance   float64
	positions map[string]*Position // trade id -> position
	bySymbol  map[string]string    // symbol -> trade id
	history   []TradeRecord
}

func New(balance float64) *Ledger {
	return &Ledger{
		balance:   balance,
		positions: make(map[string]*Position),
		bySymbol:  make(map[string]string),
	}
}

func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Open creates a position and debits entry cost plus entry fee immediately
// (fees are realized at fill time, not at close).
func (l *Ledger) Open(req OpenRequest) (*Position, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("open %s: quantity must be positive, got %v", req.Symbol, req.Quantity)
	}
	if req.EntryPrice <= 0 {
		return nil, fmt.Errorf("open %s: entry price must be positive, got %v", req.Symbol, req.EntryPrice)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if id, ok := l.bySymbol[req.Symbol]; ok {
		return nil, fmt.Errorf("open %s (trade %s): %w", req.Symbol, id, ErrDuplicatePosition)
	}
	if _, ok := l.positions[req.TradeID]; ok {
		return nil, fmt.Errorf("open %s (trade %s): %w", req.Symbol, req.TradeID, ErrDuplicatePosition)
	}

	l.balance -= req.EntryPrice*req.Quantity + req.EntryFee

	p := &Position{
		TradeID:      req.TradeID,
		Symbol:       req.Symbol,
		EntryPrice:   req.EntryPrice,
		Quantity:     req.Quantity,
		StopPrice:    req.StopPrice,
		InitialStop:  req.StopPrice,
		TargetPrice:  req.TargetPrice,
		EntryFee:     req.EntryFee,
		RiskFraction: req.RiskFraction,
		OpenedAt:     req.OpenedAt,
	}
	l.positions[req.TradeID] = p
	l.bySymbol[req.Symbol] = req.TradeID

	return p, nil
}

// Close realizes the position: credits the exit proceeds net of the exit
// fee, appends an immutable TradeRecord, and removes the position.
func (l *Ledger) Close(tradeID string, exitPrice, exitFee float64, reason string, closedAt time.Time) (TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.positions[tradeID]
	if !ok {
		return TradeRecord{}, fmt.Errorf("close trade %s: %w", tradeID, ErrUnknownPosition)
	}

	gross := (exitPrice - p.EntryPrice) * p.Quantity
	fees := p.EntryFee + exitFee

	rec := TradeRecord{
		TradeID:    p.TradeID,
		Symbol:     p.Symbol,
		EntryPrice: p.EntryPrice,
		ExitPrice:  exitPrice,
		Quantity:   p.Quantity,
		GrossPnL:   gross,
		Fees:       fees,
		NetPnL:     gross - fees,
		Reason:     reason,
		OpenedAt:   p.OpenedAt,
		ClosedAt:   closedAt,
	}

	l.balance += exitPrice*p.Quantity - exitFee
	l.history = append(l.history, rec)
	delete(l.positions, tradeID)
	delete(l.bySymbol, p.Symbol)

	return rec, nil
}

// Position returns the open position for a symbol, if any.
func (l *Ledger) Position(symbol string) (*Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.bySymbol[symbol]
	if !ok {
		return nil, false
	}
	return l.positions[id], true
}

// OpenPositions returns the currently open positions.
func (l *Ledger) OpenPositions() []*Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, p)
	}
	return out
}

// History returns a copy of the realized trade log, oldest first.
func (l *Ledger) History() []TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]TradeRecord, len(l.history))
	copy(out, l.history)
	return out
}

// Equity marks open positions to the given last prices and returns cash plus
// holdings value. Symbols missing from marks are valued at entry.
func (l *Ledger) Equity(marks map[string]float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	eq := l.balance
	for _, p := range l.positions {
		mark, ok := marks[p.Symbol]
		if !ok {
			mark = p.EntryPrice
		}
		eq += mark * p.Quantity
	}
	return eq
}
