package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/tradekit/market"
)

// MACD is a streaming Moving Average Convergence Divergence indicator.
// Value() returns the MACD line; Signal() and Histogram() become meaningful
// once SignalReady() is true.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA

	fastPeriod, slowPeriod, signalPeriod int
}

func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:         NewEMA(fast),
		slow:         NewEMA(slow),
		signal:       NewEMA(signal),
		fastPeriod:   fast,
		slowPeriod:   slow,
		signalPeriod: signal,
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD(%d,%d,%d)", m.fastPeriod, m.slowPeriod, m.signalPeriod)
}

func (m *MACD) Warmup() int { return m.slowPeriod + m.signalPeriod }

func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.Reset()
}

func (m *MACD) Update(c market.Candle) {
	m.fast.Update(c)
	m.slow.Update(c)
	if m.fast.Ready() && m.slow.Ready() {
		m.signal.UpdateValue(m.fast.Value() - m.slow.Value())
	}
}

func (m *MACD) Ready() bool { return m.fast.Ready() && m.slow.Ready() }

func (m *MACD) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.fast.Value() - m.slow.Value()
}

func (m *MACD) SignalReady() bool { return m.signal.Ready() }

func (m *MACD) Signal() float64 { return m.signal.Value() }

func (m *MACD) Histogram() float64 {
	if !m.SignalReady() {
		return 0
	}
	return m.Value() - m.Signal()
}

// MACDSeries computes macd, signal and histogram series aligned with candles.
// Each series is NaN until its own warm-up completes.
func MACDSeries(candles []market.Candle, fast, slow, signal int) (macd, sig, hist []float64, err error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return nil, nil, nil, fmt.Errorf("periods must be positive, got %d,%d,%d", fast, slow, signal)
	}
	n := len(candles)
	macd = make([]float64, n)
	sig = make([]float64, n)
	hist = make([]float64, n)

	m := NewMACD(fast, slow, signal)
	for i, c := range candles {
		m.Update(c)
		macd[i], sig[i], hist[i] = math.NaN(), math.NaN(), math.NaN()
		if m.Ready() {
			macd[i] = m.Value()
		}
		if m.SignalReady() {
			sig[i] = m.Signal()
			hist[i] = m.Histogram()
		}
	}
	return macd, sig, hist, nil
}
