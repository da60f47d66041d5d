package market

import (
	"fmt"
	"math"
)

// Frame is an ordered candle history extended with named indicator columns.
// Every column always has the same length as Candles. Values inside an
// indicator's warm-up window are NaN; Value/Last report them as not-ok so
// they can never be silently read as zero.
type Frame struct {
	Candles []Candle
	columns map[string][]float64
}

func NewFrame() *Frame {
	return &Frame{columns: make(map[string][]float64)}
}

// Append adds a closed candle and pads every existing column with NaN so the
// length invariant holds until the next SetColumn.
func (f *Frame) Append(c Candle) {
	f.Candles = append(f.Candles, c)
	for name, col := range f.columns {
		f.columns[name] = append(col, math.NaN())
	}
}

func (f *Frame) Len() int { return len(f.Candles) }

// Last returns the most recent candle. Callers must check Len first.
func (f *Frame) Last() Candle { return f.Candles[len(f.Candles)-1] }

// SetColumn installs or replaces a derived series. The series must be
// aligned with the candle history.
func (f *Frame) SetColumn(name string, vals []float64) error {
	if len(vals) != len(f.Candles) {
		return fmt.Errorf("column %q length %d != candles %d", name, len(vals), len(f.Candles))
	}
	f.columns[name] = vals
	return nil
}

// Column returns the raw series for name, ok=false if it was never set.
func (f *Frame) Column(name string) ([]float64, bool) {
	col, ok := f.columns[name]
	return col, ok
}

// Value returns column[i]. ok=false when the column is missing, the index is
// out of range, or the value is NaN (warm-up not complete).
func (f *Frame) Value(name string, i int) (float64, bool) {
	col, ok := f.columns[name]
	if !ok || i < 0 || i >= len(col) {
		return 0, false
	}
	v := col[i]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// LastValue returns the newest value of a column, ok=false during warm-up.
func (f *Frame) LastValue(name string) (float64, bool) {
	return f.Value(name, len(f.Candles)-1)
}

// PrevValue returns the second-newest value of a column.
func (f *Frame) PrevValue(name string) (float64, bool) {
	return f.Value(name, len(f.Candles)-2)
}

// Trim discards the oldest candles (and column prefixes) so the frame holds
// at most max bars. Live sessions call this to bound memory.
func (f *Frame) Trim(max int) {
	n := len(f.Candles)
	if max <= 0 || n <= max {
		return
	}
	cut := n - max
	f.Candles = append(f.Candles[:0], f.Candles[cut:]...)
	for name, col := range f.columns {
		f.columns[name] = append(col[:0], col[cut:]...)
	}
}
