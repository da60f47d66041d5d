package risk

import "sync"

// FractionProvider proposes the risk fraction for the next trade on a
// symbol. The governor decides whether the proposal fits the budget; the
// provider only suggests.
type FractionProvider interface {
	Fraction(symbol string) float64
}

// StaticFraction proposes the same fraction for every trade.
type StaticFraction float64

func (s StaticFraction) Fraction(string) float64 { return float64(s) }

// Winrate tiers: trade bigger while the recent record is good, smaller
// while it is poor.
const (
	winrateHighBar = 0.50
	winrateMidBar  = 0.35

	fractionHigh = 0.015
	fractionMid  = 0.010
	fractionLow  = 0.005
)

// WinrateFraction sizes risk from a rolling window of recent trade outcomes
// per symbol. With no history yet, a symbol is assumed to win 35% of the
// time, which lands in the middle tier.
type WinrateFraction struct {
	mu       sync.Mutex
	window   int
	outcomes map[string][]bool
}

func NewWinrateFraction(window int) *WinrateFraction {
	if window <= 0 {
		window = 20
	}
	return &WinrateFraction{
		window:   window,
		outcomes: make(map[string][]bool),
	}
}

// Record appends a trade outcome for a symbol, evicting the oldest once the
// window is full.
func (w *WinrateFraction) Record(symbol string, win bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	hist := append(w.outcomes[symbol], win)
	if len(hist) > w.window {
		hist = hist[1:]
	}
	w.outcomes[symbol] = hist
}

func (w *WinrateFraction) Fraction(symbol string) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	winrate := winrateMidBar
	if hist := w.outcomes[symbol]; len(hist) > 0 {
		wins := 0
		for _, won := range hist {
			if won {
				wins++
			}
		}
		winrate = float64(wins) / float64(len(hist))
	}

	switch {
	case winrate >= winrateHighBar:
		return fractionHigh
	case winrate >= winrateMidBar:
		return fractionMid
	default:
		return fractionLow
	}
}
