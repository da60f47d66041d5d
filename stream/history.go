package stream

import (
	"context"
	"fmt"
	"sort"

	"github.com/rustyeddy/tradekit/market"
)

// History replays candles loaded from CSV files for one or more symbols,
// merged into a single stream ordered by open time. Ties between symbols
// break on symbol name so replays are deterministic.
type History struct {
	bars chan market.Bar
	all  []market.Bar
}

// NewHistory builds a replay feed from per-symbol candle slices.
func NewHistory(candles map[string][]market.Candle) *History {
	var all []market.Bar
	for symbol, cs := range candles {
		for _, c := range cs {
			all = append(all, market.Bar{Symbol: symbol, Closed: true, Candle: c})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].OpenTime.Equal(all[j].OpenTime) {
			return all[i].OpenTime.Before(all[j].OpenTime)
		}
		return all[i].Symbol < all[j].Symbol
	})
	return &History{
		bars: make(chan market.Bar),
		all:  all,
	}
}

// NewHistoryFromFiles loads symbol -> csv path pairs and merges them.
func NewHistoryFromFiles(files map[string]string) (*History, error) {
	candles := make(map[string][]market.Candle, len(files))
	for symbol, path := range files {
		cs, err := market.LoadCandlesCSV(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", symbol, err)
		}
		if len(cs) == 0 {
			return nil, fmt.Errorf("load %s: no candles in %s", symbol, path)
		}
		candles[symbol] = cs
	}
	return NewHistory(candles), nil
}

func (h *History) Bars() <-chan market.Bar { return h.bars }

// Run pushes every bar in order, then closes the channel. Cancelling the
// context stops the replay early.
func (h *History) Run(ctx context.Context) error {
	defer close(h.bars)
	for _, b := range h.all {
		select {
		case h.bars <- b:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Len reports the total number of bars the replay will deliver.
func (h *History) Len() int { return len(h.all) }
