package risk

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidStop means the per-unit risk is zero or negative (stop equals
// entry with no fees), so no finite quantity satisfies the risk budget.
var ErrInvalidStop = errors.New("per-unit risk is not positive")

// Size returns the spot quantity to buy so that a stop-out loses at most
// balance*fraction, with the round-trip taker fee charged against the risk
// budget rather than only against realized PnL. The result is additionally
// capped so the position cost never exceeds the balance. A zero result means
// "do not trade", not an error.
func Size(balance, fraction, entry, stop, feeRate float64) (float64, error) {
	if entry <= 0 || stop <= 0 {
		return 0, fmt.Errorf("size: prices must be positive (entry=%v stop=%v)", entry, stop)
	}

	riskAmount := balance * fraction
	perUnit := math.Abs(entry-stop) + 2*entry*feeRate
	if perUnit <= 0 {
		return 0, fmt.Errorf("size: entry=%v stop=%v fee=%v: %w", entry, stop, feeRate, ErrInvalidStop)
	}

	qty := riskAmount / perUnit
	if affordable := balance / entry; qty > affordable {
		qty = affordable
	}
	if qty < 0 {
		qty = 0
	}
	return qty, nil
}
