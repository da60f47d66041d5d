package engine

import (
	"log"

	"github.com/rustyeddy/tradekit/ledger"
)

// EventSink receives trade lifecycle notifications. Sinks must not block;
// the engine calls them on its processing path.
type EventSink interface {
	PositionOpened(p ledger.Position)
	PositionClosed(rec ledger.TradeRecord)
	EntryRejected(symbol, reason string)
	StopAdvanced(symbol string, from, to float64)
}

// NopSink ignores every event.
type NopSink struct{}

func (NopSink) PositionOpened(ledger.Position) {}
func (NopSink) PositionClosed(ledger.TradeRecord) {}
func (NopSink) EntryRejected(string, string) {}
func (NopSink) StopAdvanced(string, float64, float64) {}

// LogSink prints every event with the standard logger.
type LogSink struct{}

func (LogSink) PositionOpened(p ledger.Position) {
	log.Printf("OPEN  %s trade=%s entry=%.6f qty=%.6f stop=%.6f risk=%.4f",
		p.Symbol, p.TradeID, p.EntryPrice, p.Quantity, p.StopPrice, p.RiskFraction)
}

func (LogSink) PositionClosed(rec ledger.TradeRecord) {
	log.Printf("CLOSE %s trade=%s exit=%.6f net=%.6f fees=%.6f reason=%s",
		rec.Symbol, rec.TradeID, rec.ExitPrice, rec.NetPnL, rec.Fees, rec.Reason)
}

func (LogSink) EntryRejected(symbol, reason string) {
	log.Printf("REJECT %s reason=%s", symbol, reason)
}

func (LogSink) StopAdvanced(symbol string, from, to float64) {
	log.Printf("TRAIL %s stop %.6f -> %.6f", symbol, from, to)
}

// Sinks fans events out to several sinks in order.
type Sinks []EventSink

func (s Sinks) PositionOpened(p ledger.Position) {
	for _, sink := range s {
		sink.PositionOpened(p)
	}
}

func (s Sinks) PositionClosed(rec ledger.TradeRecord) {
	for _, sink := range s {
		sink.PositionClosed(rec)
	}
}

func (s Sinks) EntryRejected(symbol, reason string) {
	for _, sink := range s {
		sink.EntryRejected(symbol, reason)
	}
}

func (s Sinks) StopAdvanced(symbol string, from, to float64) {
	for _, sink := range s {
		sink.StopAdvanced(symbol, from, to)
	}
}
