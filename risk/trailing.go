package risk

import (
	"fmt"

	"github.com/rustyeddy/tradekit/ledger"
)

// TrailMode selects how the trailing distance is computed.
type TrailMode string

const (
	// TrailPercent trails at a fixed fraction below the latest price.
	TrailPercent TrailMode = "percent"
	// TrailATR trails at a volatility-scaled distance below the latest price.
	TrailATR TrailMode = "atr"
)

// TrailingStop tightens a long position's stop as price moves favorably.
//
// Each position moves through two states. Before breakeven the stop stays at
// the initial stop; once favorable excursion reaches one initial risk unit
// the stop is promoted to the entry price, unconditionally. From then on the
// stop trails the latest price and only ever moves up.
type TrailingStop struct {
	Mode          TrailMode
	Percent       float64 // TrailPercent: trail distance as a fraction of price
	ATRMultiplier float64 // TrailATR: trail distance = atr * multiplier
}

func (t TrailingStop) Validate() error {
	switch t.Mode {
	case TrailPercent:
		if t.Percent <= 0 || t.Percent >= 1 {
			return fmt.Errorf("trail percent must be in (0,1), got %v", t.Percent)
		}
	case TrailATR:
		if t.ATRMultiplier <= 0 {
			return fmt.Errorf("trail atr multiplier must be positive, got %v", t.ATRMultiplier)
		}
	default:
		return fmt.Errorf("unknown trail mode %q", string(t.Mode))
	}
	return nil
}

// Update advances the stop for an open long position given the latest price
// and, in ATR mode, the current ATR. When the ATR is still warming up
// (atrOK=false) the trail is skipped for this tick so the stop is never set
// from an undefined value; breakeven promotion needs no ATR and still fires.
// The stop is monotonic: it never moves down.
func (t TrailingStop) Update(p *ledger.Position, price, atr float64, atrOK bool) {
	if !p.BreakevenPromoted {
		if price-p.EntryPrice < p.InitialRisk() {
			return
		}
		// Promote to breakeven even if the trail candidate would be lower.
		if p.EntryPrice > p.StopPrice {
			p.StopPrice = p.EntryPrice
		}
		p.BreakevenPromoted = true
	}

	var candidate float64
	switch t.Mode {
	case TrailATR:
		if !atrOK {
			return
		}
		candidate = price - atr*t.ATRMultiplier
	default:
		candidate = price * (1 - t.Percent)
	}

	if candidate > p.StopPrice {
		p.StopPrice = candidate
	}
}
