package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/tradekit/market"
)

// ADX implements Wilder's Average Directional Index (trend strength).
//
//	adx := indicators.NewADX(14)
//	adx.Update(candle)
//	if adx.Ready() && adx.Value() >= 25 { ... }
type ADX struct {
	period int

	prev    market.Candle
	hasPrev bool

	// Wilder-smoothed values after warmup:
	tr  float64
	pdm float64
	mdm float64

	adx   float64
	dxSum float64

	count int
	ready bool
}

func NewADX(period int) *ADX {
	return &ADX{period: period}
}

func (a *ADX) Name() string { return fmt.Sprintf("ADX(%d)", a.period) }

// Warmup: a seed candle, period updates to initialize smoothed TR/+DM/-DM,
// then period DX values to initialize ADX.
func (a *ADX) Warmup() int { return 2 * a.period }

func (a *ADX) Reset() {
	a.hasPrev = false
	a.tr = 0
	a.pdm = 0
	a.mdm = 0
	a.adx = 0
	a.dxSum = 0
	a.count = 0
	a.ready = false
}

func (a *ADX) Ready() bool { return a.ready }

func (a *ADX) Value() float64 {
	if !a.ready {
		return 0
	}
	return a.adx
}

func (a *ADX) Update(c market.Candle) {
	if !a.hasPrev {
		a.prev = c
		a.hasPrev = true
		return
	}

	upMove := c.High - a.prev.High
	downMove := a.prev.Low - c.Low

	var pdm, mdm float64
	if upMove > downMove && upMove > 0 {
		pdm = upMove
	}
	if downMove > upMove && downMove > 0 {
		mdm = downMove
	}

	tr := trueRange(c, a.prev)
	a.prev = c
	a.count++

	p := float64(a.period)
	if a.count <= a.period {
		// Accumulate raw sums for initial smoothing.
		a.tr += tr
		a.pdm += pdm
		a.mdm += mdm
		if a.count < a.period {
			return
		}
	} else {
		a.tr = a.tr - a.tr/p + tr
		a.pdm = a.pdm - a.pdm/p + pdm
		a.mdm = a.mdm - a.mdm/p + mdm
	}

	dx := a.dx()

	switch {
	case a.count < 2*a.period-1:
		a.dxSum += dx
	case a.count == 2*a.period-1:
		a.adx = (a.dxSum + dx) / p
		a.ready = true
	default:
		a.adx = (a.adx*(p-1) + dx) / p
	}
}

func (a *ADX) dx() float64 {
	if a.tr == 0 {
		return 0
	}
	pdi := 100 * a.pdm / a.tr
	mdi := 100 * a.mdm / a.tr
	sum := pdi + mdi
	if sum == 0 {
		return 0
	}
	return 100 * math.Abs(pdi-mdi) / sum
}
