package strategy

import (
	"fmt"

	"github.com/rustyeddy/tradekit/indicators"
	"github.com/rustyeddy/tradekit/ledger"
	"github.com/rustyeddy/tradekit/market"
)

// MACDCross enters when the MACD line crosses above its signal line with a
// short-period RSI above a floor (filters dead markets), and exits on the
// opposite cross.
type MACDCross struct {
	fast      int
	slow      int
	signal    int
	rsiPeriod int
	rsiFloor  float64
	atrPeriod int
}

func NewMACDCross(p Params) *MACDCross {
	s := &MACDCross{
		fast:      p.MACDFast,
		slow:      p.MACDSlow,
		signal:    p.MACDSignal,
		rsiPeriod: p.RSIPeriod,
		rsiFloor:  p.RSIFloor,
		atrPeriod: p.ATRPeriod,
	}
	if s.fast == 0 {
		s.fast = 12
	}
	if s.slow == 0 {
		s.slow = 26
	}
	if s.signal == 0 {
		s.signal = 9
	}
	if s.rsiPeriod == 0 {
		s.rsiPeriod = 6
	}
	if s.rsiFloor == 0 {
		s.rsiFloor = 30
	}
	if s.atrPeriod == 0 {
		s.atrPeriod = 14
	}
	return s
}

func (s *MACDCross) Name() string {
	return fmt.Sprintf("macd(%d,%d,%d)", s.fast, s.slow, s.signal)
}

func (s *MACDCross) Prepare(f *market.Frame) error {
	macd, sig, _, err := indicators.MACDSeries(f.Candles, s.fast, s.slow, s.signal)
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

	if err := f.SetColumn(ColMACD, macd); err != nil {
		return err
	}
	if err := f.SetColumn(ColSignal, sig); err != nil {
		return err
	}
	if err := f.SetColumn(ColRSI, rsi); err != nil {
		return err
	}
	return f.SetColumn(ColATR, atr)
}

func (s *MACDCross) ShouldEnter(f *market.Frame) bool {
	difPrev, ok := f.PrevValue(ColMACD)
	if !ok {
		return false
	}
	deaPrev, ok := f.PrevValue(ColSignal)
	if !ok {
		return false
	}
	dif, ok := f.LastValue(ColMACD)
	if !ok {
		return false
	}
	dea, ok := f.LastValue(ColSignal)
	if !ok {
		return false
	}
	rsi, ok := f.LastValue(ColRSI)
	if !ok {
		return false
	}

	return rsi > s.rsiFloor && difPrev < deaPrev && dif > dea
}

func (s *MACDCross) ShouldExit(f *market.Frame, _ *ledger.Position) (string, bool) {
	difPrev, ok := f.PrevValue(ColMACD)
	if !ok {
		return "", false
	}
	deaPrev, ok := f.PrevValue(ColSignal)
	if !ok {
		return "", false
	}
	dif, ok := f.LastValue(ColMACD)
	if !ok {
		return "", false
	}
	dea, ok := f.LastValue(ColSignal)
	if !ok {
		return "", false
	}

	if difPrev >= deaPrev && dif < dea {
		return "MacdCrossDown", true
	}
	return "", false
}
