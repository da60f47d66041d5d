package strategy

import (
	"fmt"

	"github.com/rustyeddy/tradekit/indicators"
	"github.com/rustyeddy/tradekit/ledger"
	"github.com/rustyeddy/tradekit/market"
)

// EMARSI enters on a bullish fast/slow EMA cross confirmed by an RSI band
// and exits on the opposite cross. ATR is published for the engine's stop
// placement.
type EMARSI struct {
	fastPeriod int
	slowPeriod int
	rsiPeriod  int
	rsiMin     float64
	rsiMax     float64
	atrPeriod  int
}

func NewEMARSI(p Params) *EMARSI {
	s := &EMARSI{
		fastPeriod: p.FastPeriod,
		slowPeriod: p.SlowPeriod,
		rsiPeriod:  p.RSIPeriod,
		rsiMin:     p.RSIMin,
		rsiMax:     p.RSIMax,
		atrPeriod:  p.ATRPeriod,
	}
	if s.fastPeriod == 0 {
		s.fastPeriod = 9
	}
	if s.slowPeriod == 0 {
		s.slowPeriod = 21
	}
	if s.rsiPeriod == 0 {
		s.rsiPeriod = 14
	}
	if s.rsiMin == 0 {
		s.rsiMin = 50
	}
	if s.rsiMax == 0 {
		s.rsiMax = 70
	}
	if s.atrPeriod == 0 {
		s.atrPeriod = 14
	}
	return s
}

func (s *EMARSI) Name() string {
	return fmt.Sprintf("ema-rsi(%d,%d,rsi%d)", s.fastPeriod, s.slowPeriod, s.rsiPeriod)
}

func (s *EMARSI) Prepare(f *market.Frame) error {
	fast, err := indicators.EMASeries(f.Candles, s.fastPeriod)
	if err != nil {
		return err
	}
	slow, err := indicators.EMASeries(f.Candles, s.slowPeriod)
	if err != nil {
		return err
	}
	rsi, err := indicators.RSISeries(f.Candles, s.rsiPeriod)
	if err != nil {
		return err
	}
	atr, err := indicators.ATRSeries(f.Candles, s.atrPeriod)
	if err != nil {
		return err
	}

	if err := f.SetColumn(ColEMAFast, fast); err != nil {
		return err
	}
	if err := f.SetColumn(ColEMASlow, slow); err != nil {
		return err
	}
	if err := f.SetColumn(ColRSI, rsi); err != nil {
		return err
	}
	return f.SetColumn(ColATR, atr)
}

func (s *EMARSI) ShouldEnter(f *market.Frame) bool {
	fastPrev, ok := f.PrevValue(ColEMAFast)
	if !ok {
		return false
	}
	slowPrev, ok := f.PrevValue(ColEMASlow)
	if !ok {
		return false
	}
	fast, ok := f.LastValue(ColEMAFast)
	if !ok {
		return false
	}
	slow, ok := f.LastValue(ColEMASlow)
	if !ok {
		return false
	}
	rsi, ok := f.LastValue(ColRSI)
	if !ok {
		return false
	}

	crossUp := fastPrev < slowPrev && fast > slow
	rsiOK := rsi > s.rsiMin && rsi < s.rsiMax

	return crossUp && rsiOK
}

func (s *EMARSI) ShouldExit(f *market.Frame, _ *ledger.Position) (string, bool) {
	fastPrev, ok := f.PrevValue(ColEMAFast)
	if !ok {
		return "", false
	}
	slowPrev, ok := f.PrevValue(ColEMASlow)
	if !ok {
		return "", false
	}
	fast, ok := f.LastValue(ColEMAFast)
	if !ok {
		return "", false
	}
	slow, ok := f.LastValue(ColEMASlow)
	if !ok {
		return "", false
	}

	if fastPrev >= slowPrev && fast < slow {
		return "EmaCrossDown", true
	}
	return "", false
}
