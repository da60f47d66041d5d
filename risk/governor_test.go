package risk

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLimits() Limits {
	return Limits{
		MaxTotalRisk:   0.05,
		MaxDailyLoss:   100,
		MaxOpenTrades:  3,
		MaxPerSymbol:   1,
		MaxDailyTrades: 10,
	}
}

func TestLimitsValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, testLimits().Validate())

	bad := testLimits()
	bad.MaxTotalRisk = 0
	assert.Error(t, bad.Validate())

	bad = testLimits()
	bad.MaxDailyTrades = 0
	assert.Error(t, bad.Validate())

	bad = testLimits()
	bad.MaxDailyLoss = -1
	assert.Error(t, bad.Validate())
}

func TestCanOpenRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		setup  func(g *Governor)
		symbol string
		frac   float64
		reason string
	}{
		{
			name:   "daily loss reached",
			setup:  func(g *Governor) { g.Register("T1", "A", 0.01); g.Close("T1", "A", -100) },
			symbol: "B", frac: 0.01, reason: ReasonDailyLoss,
		},
		{
			name: "daily trade count reached",
			setup: func(g *Governor) {
				for i := 0; i < 10; i++ {
					id := fmt.Sprintf("T%d", i)
					g.Register(id, "A", 0.001)
					g.Close(id, "A", 1)
				}
			},
			symbol: "B", frac: 0.01, reason: ReasonDailyTrades,
		},
		{
			name: "max open trades",
			setup: func(g *Governor) {
				g.Register("T1", "A", 0.01)
				g.Register("T2", "B", 0.01)
				g.Register("T3", "C", 0.01)
			},
			symbol: "D", frac: 0.01, reason: ReasonOpenTrades,
		},
		{
			name:   "per-symbol cap",
			setup:  func(g *Governor) { g.Register("T1", "A", 0.01) },
			symbol: "A", frac: 0.01, reason: ReasonSymbolTrades,
		},
		{
			name:   "total risk budget",
			setup:  func(g *Governor) { g.Register("T1", "A", 0.04) },
			symbol: "B", frac: 0.02, reason: ReasonTotalRisk,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewGovernor(testLimits())
			tt.setup(g)
			d := g.CanOpen(tt.symbol, tt.frac)
			assert.False(t, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestMaxOpenTradesOneBlocksSecondSymbol(t *testing.T) {
	t.Parallel()

	lim := testLimits()
	lim.MaxOpenTrades = 1
	g := NewGovernor(lim)

	require.True(t, g.CanOpen("AAA", 0.01).Allowed)
	g.Register("T1", "AAA", 0.01)

	assert.False(t, g.CanOpen("BBB", 0.001).Allowed)

	g.Close("T1", "AAA", 5)
	assert.True(t, g.CanOpen("BBB", 0.01).Allowed)
}

func TestCloseOnlyLossesAccumulateDailyLoss(t *testing.T) {
	t.Parallel()

	g := NewGovernor(testLimits())
	g.Register("T1", "A", 0.01)
	g.Close("T1", "A", 50)
	assert.InDelta(t, 0, g.DailyLoss(), 1e-12)

	g.Register("T2", "A", 0.01)
	g.Close("T2", "A", -30)
	assert.InDelta(t, 30, g.DailyLoss(), 1e-12)

	// Closing an unknown id again must not double-release.
	g.Close("T2", "A", -30)
	assert.InDelta(t, 30, g.DailyLoss(), 1e-12)
}

func TestResetDailyLeavesOpenTradeState(t *testing.T) {
	t.Parallel()

	g := NewGovernor(testLimits())
	g.Register("T1", "A", 0.02)
	g.Register("T2", "B", 0.01)
	g.Close("T2", "B", -40)

	g.ResetDaily()

	assert.InDelta(t, 0, g.DailyLoss(), 1e-12)
	assert.Equal(t, 1, g.OpenTrades())
	assert.InDelta(t, 0.02, g.CommittedRisk(), 1e-12)

	// Symbol A is still occupied after the reset.
	assert.Equal(t, ReasonSymbolTrades, g.CanOpen("A", 0.01).Reason)
}

// Committed risk never exceeds the ceiling under any interleaving of
// TryOpen/Close across goroutines.
func TestTryOpenConcurrentBudgetInvariant(t *testing.T) {
	t.Parallel()

	lim := testLimits()
	lim.MaxTotalRisk = 0.03
	lim.MaxOpenTrades = 100
	lim.MaxDailyTrades = 10000
	lim.MaxPerSymbol = 100
	g := NewGovernor(lim)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := fmt.Sprintf("W%d-%d", w, i)
				d := g.TryOpen(id, "SYM", 0.01)
				if d.Allowed {
					if risk := g.CommittedRisk(); risk > lim.MaxTotalRisk+1e-9 {
						t.Errorf("committed risk %v exceeds ceiling", risk)
					}
					g.Close(id, "SYM", 1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, g.OpenTrades())
	assert.InDelta(t, 0, g.CommittedRisk(), 1e-12)
}

func TestDayManagerRollover(t *testing.T) {
	t.Parallel()

	dm, err := NewDayManager("UTC")
	require.NoError(t, err)
	g := NewGovernor(testLimits())

	d1 := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
	assert.False(t, dm.RolloverIfNeeded(d1, g))

	g.Register("T1", "A", 0.01)
	g.Close("T1", "A", -10)

	// Same day: no reset.
	assert.False(t, dm.RolloverIfNeeded(d1.Add(time.Hour), g))
	assert.InDelta(t, 10, g.DailyLoss(), 1e-12)

	// Midnight crossed: daily counters zeroed exactly once.
	d2 := time.Date(2025, 6, 2, 0, 30, 0, 0, time.UTC)
	assert.True(t, dm.RolloverIfNeeded(d2, g))
	assert.False(t, dm.RolloverIfNeeded(d2.Add(time.Minute), g))
	assert.InDelta(t, 0, g.DailyLoss(), 1e-12)
}

func TestDayManagerBadTimezone(t *testing.T) {
	t.Parallel()

	_, err := NewDayManager("Mars/Olympus")
	assert.Error(t, err)
}
