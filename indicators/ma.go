package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/tradekit/market"
)

// EMA is a streaming exponential moving average over candle closes.
// The first value is seeded with the SMA of the first period closes.
type EMA struct {
	period int
	mult   float64

	sum   float64
	count int
	ema   float64
}

func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		mult:   2.0 / float64(period+1),
	}
}

func (e *EMA) Name() string { return fmt.Sprintf("EMA(%d)", e.period) }
func (e *EMA) Warmup() int { return e.period }

func (e *EMA) Reset() {
	e.sum = 0
	e.count = 0
	e.ema = 0
}

func (e *EMA) Update(c market.Candle) {
	e.UpdateValue(c.Close)
}

// UpdateValue feeds a raw value; used by MACD to smooth its own line.
func (e *EMA) UpdateValue(v float64) {
	e.count++
	if e.count < e.period {
		e.sum += v
		return
	}
	if e.count == e.period {
		e.sum += v
		e.ema = e.sum / float64(e.period)
		return
	}
	e.ema = (v-e.ema)*e.mult + e.ema
}

func (e *EMA) Ready() bool { return e.count >= e.period }

func (e *EMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.ema
}

// EMASeries computes an EMA series aligned with candles; entries before the
// warm-up completes are NaN.
func EMASeries(candles []market.Candle, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	out := make([]float64, len(candles))
	e := NewEMA(period)
	for i, c := range candles {
		e.Update(c)
		if e.Ready() {
			out[i] = e.Value()
		} else {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

// SMASeries computes a simple moving average of closes, NaN during warm-up.
func SMASeries(candles []market.Candle, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	out := make([]float64, len(candles))
	sum := 0.0
	for i, c := range candles {
		sum += c.Close
		if i >= period {
			sum -= candles[i-period].Close
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		} else {
			out[i] = math.NaN()
		}
	}
	return out, nil
}
