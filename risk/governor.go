// Package risk enforces portfolio-wide trading limits: the governor gating
// every new position, fee-aware position sizing, trailing stop management,
// and the policies that propose a risk fraction per trade.
package risk

import (
	"fmt"
	"sync"
)

// Limits configures the governor's ceilings.
type Limits struct {
	MaxTotalRisk   float64 // sum of committed risk fractions across open trades
	MaxDailyLoss   float64 // realized account-currency loss before trading halts for the day
	MaxOpenTrades  int
	MaxPerSymbol   int // open trades per symbol, default 1
	MaxDailyTrades int
}

func (l Limits) Validate() error {
	if l.MaxTotalRisk <= 0 || l.MaxTotalRisk > 1 {
		return fmt.Errorf("max total risk must be in (0,1], got %v", l.MaxTotalRisk)
	}
	if l.MaxDailyLoss <= 0 {
		return fmt.Errorf("max daily loss must be positive, got %v", l.MaxDailyLoss)
	}
	if l.MaxOpenTrades <= 0 {
		return fmt.Errorf("max open trades must be positive, got %d", l.MaxOpenTrades)
	}
	if l.MaxPerSymbol < 0 {
		return fmt.Errorf("max per symbol must not be negative, got %d", l.MaxPerSymbol)
	}
	if l.MaxDailyTrades <= 0 {
		return fmt.Errorf("max daily trades must be positive, got %d", l.MaxDailyTrades)
	}
	return nil
}

// Rejection reason codes reported by Decision.
const (
	ReasonDailyLoss    = "DAILY_LOSS_LIMIT"
	ReasonDailyTrades  = "DAILY_TRADE_LIMIT"
	ReasonOpenTrades   = "MAX_OPEN_TRADES"
	ReasonSymbolTrades = "MAX_SYMBOL_TRADES"
	ReasonTotalRisk    = "TOTAL_RISK_EXCEEDED"
)

// Decision reports whether a proposed trade may open and why not.
// A rejection is an expected outcome, not an error.
type Decision struct {
	Allowed bool
	Reason  string
}

// Governor arbitrates every request to open a position. One governor exists
// per trading session and is shared by all symbol streams. All methods are
// safe for concurrent use; TryOpen runs its check and commit in a single
// critical section so two symbols can never both pass against the same
// remaining budget.
type Governor struct {
	mu          sync.Mutex
	limits      Limits
	openRisk    map[string]float64 // trade id -> committed risk fraction
	symbolCount map[string]int
	dailyTrades int
	dailyLoss   float64
}

func NewGovernor(limits Limits) *Governor {
	if limits.MaxPerSymbol == 0 {
		limits.MaxPerSymbol = 1
	}
	return &Governor{
		limits:      limits,
		openRisk:    make(map[string]float64),
		symbolCount: make(map[string]int),
	}
}

// CanOpen checks every ceiling for a proposed trade. The caller must not
// open a position unless the decision allows it.
func (g *Governor) CanOpen(symbol string, fraction float64) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canOpenLocked(symbol, fraction)
}

func (g *Governor) canOpenLocked(symbol string, fraction float64) Decision {
	if g.dailyLoss >= g.limits.MaxDailyLoss {
		return Decision{Reason: ReasonDailyLoss}
	}
	if g.dailyTrades >= g.limits.MaxDailyTrades {
		return Decision{Reason: ReasonDailyTrades}
	}
	if len(g.openRisk) >= g.limits.MaxOpenTrades {
		return Decision{Reason: ReasonOpenTrades}
	}
	if g.symbolCount[symbol] >= g.limits.MaxPerSymbol {
		return Decision{Reason: ReasonSymbolTrades}
	}

	total := fraction
	for _, r := range g.openRisk {
		total += r
	}
	if total > g.limits.MaxTotalRisk {
		return Decision{Reason: ReasonTotalRisk}
	}

	return Decision{Allowed: true}
}

// Register commits an approved trade's risk. It must be called only after
// CanOpen allowed the same symbol and fraction; it is the commit point and
// the only mutator that adds to open-trade state.
func (g *Governor) Register(tradeID, symbol string, fraction float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.registerLocked(tradeID, symbol, fraction)
}

func (g *Governor) registerLocked(tradeID, symbol string, fraction float64) {
	g.openRisk[tradeID] = fraction
	g.symbolCount[symbol]++
	g.dailyTrades++
}

// TryOpen checks and, if allowed, registers in one critical section.
// Concurrent symbol streams use this so check-then-register cannot race.
func (g *Governor) TryOpen(tradeID, symbol string, fraction float64) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	d := g.canOpenLocked(symbol, fraction)
	if d.Allowed {
		g.registerLocked(tradeID, symbol, fraction)
	}
	return d
}

// Close releases a trade's committed risk and, if the realized PnL was a
// loss, charges it against the daily loss budget. Each registration is
// removed exactly once; closing an unknown trade id is a no-op.
func (g *Governor) Close(tradeID, symbol string, realizedPnL float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.openRisk[tradeID]; !ok {
		return
	}
	delete(g.openRisk, tradeID)
	if g.symbolCount[symbol] > 0 {
		g.symbolCount[symbol]--
	}
	if realizedPnL < 0 {
		g.dailyLoss += -realizedPnL
	}
}

// ResetDaily zeroes the daily counters at a trading-day boundary. Open-trade
// state is untouched; positions carried overnight keep their committed risk.
func (g *Governor) ResetDaily() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dailyTrades = 0
	g.dailyLoss = 0
}

// CommittedRisk returns the sum of risk fractions across open trades.
func (g *Governor) CommittedRisk() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := 0.0
	for _, r := range g.openRisk {
		total += r
	}
	return total
}

// OpenTrades returns the number of currently registered trades.
func (g *Governor) OpenTrades() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.openRisk)
}

// DailyLoss returns realized losses accumulated since the last daily reset.
func (g *Governor) DailyLoss() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dailyLoss
}
