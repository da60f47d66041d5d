package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/rustyeddy/tradekit/market"
	"github.com/rustyeddy/tradekit/risk"
	"github.com/rustyeddy/tradekit/stream"
)

const workerQueueLen = 16

// Session runs the engine against a live feed. Bars are routed to one worker
// goroutine per symbol, so symbols progress independently while the shared
// governor and ledger serialize risk and balance changes.
//
// Cancelling the context starts a graceful shutdown: new entries are
// suspended, buffered bars are drained so open positions keep being managed,
// then the feed is torn down and the engine flushes a final equity snapshot,
// logging every position still open. Positions are left open; a restarted
// session does not know about them, so operators flatten manually or let the
// exchange stops work.
type Session struct {
	eng  *Engine
	feed stream.Feed
	day  *risk.DayManager
}

func NewSession(eng *Engine, feed stream.Feed, day *risk.DayManager) *Session {
	return &Session{eng: eng, feed: feed, day: day}
}

// Run processes the feed until the context is cancelled or the feed ends.
func (s *Session) Run(ctx context.Context) error {
	feedCtx, stopFeed := context.WithCancel(context.WithoutCancel(ctx))
	defer stopFeed()

	feedErr := make(chan error, 1)
	go func() { feedErr <- s.feed.Run(feedCtx) }()

	// Broker and journal calls must survive shutdown so exits can settle.
	stepCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	workers := make(map[string]chan market.Bar)
	shutdown := func() {
		for _, ch := range workers {
			close(ch)
		}
		wg.Wait()
		s.eng.Flush(time.Now().UTC())
	}

	dispatch := func(bar market.Bar) {
		if s.day != nil && bar.Closed {
			if s.day.RolloverIfNeeded(bar.OpenTime, s.eng.Governor()) {
				log.Printf("session: daily limits reset at %s", bar.OpenTime)
			}
		}
		ch, ok := workers[bar.Symbol]
		if !ok {
			ch = make(chan market.Bar, workerQueueLen)
			workers[bar.Symbol] = ch
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.work(stepCtx, ch)
			}()
		}
		ch <- bar
	}

	for {
		select {
		case <-ctx.Done():
			s.eng.SuspendEntries()
			stopFeed()
			// Drain whatever the feed already delivered.
			for bar := range s.feed.Bars() {
				dispatch(bar)
			}
			<-feedErr
			shutdown()
			return ctx.Err()

		case bar, ok := <-s.feed.Bars():
			if !ok {
				err := <-feedErr
				shutdown()
				return err
			}
			dispatch(bar)
		}
	}
}

func (s *Session) work(ctx context.Context, bars <-chan market.Bar) {
	for bar := range bars {
		var err error
		if bar.Closed {
			err = s.eng.Step(ctx, bar)
		} else {
			err = s.eng.Tick(ctx, bar)
		}
		if err != nil {
			log.Printf("session: %s: %v", bar.Symbol, err)
		}
	}
}
