package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/tradekit/market"
)

// RSI is a streaming Relative Strength Index using Wilder's smoothing.
type RSI struct {
	period int

	avgGain   float64
	avgLoss   float64
	gainSum   float64
	lossSum   float64
	count     int
	prevClose float64
	hasPrev   bool
}

func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string { return fmt.Sprintf("RSI(%d)", r.period) }
func (r *RSI) Warmup() int { return r.period + 1 }

func (r *RSI) Reset() {
	r.avgGain = 0
	r.avgLoss = 0
	r.gainSum = 0
	r.lossSum = 0
	r.count = 0
	r.hasPrev = false
}

func (r *RSI) Update(c market.Candle) {
	if !r.hasPrev {
		r.prevClose = c.Close
		r.hasPrev = true
		return
	}

	change := c.Close - r.prevClose
	r.prevClose = c.Close

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	if r.count < r.period {
		r.gainSum += gain
		r.lossSum += loss
		r.count++
		if r.count == r.period {
			r.avgGain = r.gainSum / float64(r.period)
			r.avgLoss = r.lossSum / float64(r.period)
		}
		return
	}

	r.avgGain = (r.avgGain*float64(r.period-1) + gain) / float64(r.period)
	r.avgLoss = (r.avgLoss*float64(r.period-1) + loss) / float64(r.period)
}

func (r *RSI) Ready() bool { return r.count >= r.period }

func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	if r.avgLoss == 0 {
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}

// RSISeries computes an RSI series aligned with candles, NaN during warm-up.
func RSISeries(candles []market.Candle, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	out := make([]float64, len(candles))
	r := NewRSI(period)
	for i, c := range candles {
		r.Update(c)
		if r.Ready() {
			out[i] = r.Value()
		} else {
			out[i] = math.NaN()
		}
	}
	return out, nil
}
