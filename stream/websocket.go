package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rustyeddy/tradekit/market"
)

const (
	defaultWSBase  = "wss://stream.binance.com:9443/stream"
	maxBackoff     = time.Minute
	initialBackoff = time.Second
	readTimeout    = 90 * time.Second
)

// Kline subscribes to exchange kline streams for a set of symbols and emits
// every update as a Bar; consumers filter on Closed when they only want
// finished candles. Disconnects trigger reconnection with exponential
// backoff, so Run only returns when the context ends.
type Kline struct {
	base     string
	symbols  []string
	interval market.Interval
	bars     chan market.Bar

	dial func(ctx context.Context, url string) (*websocket.Conn, error)
}

func NewKline(symbols []string, interval market.Interval) (*Kline, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("kline feed: no symbols")
	}
	if !interval.Valid() {
		return nil, fmt.Errorf("kline feed: bad interval %q", interval)
	}
	return &Kline{
		base:     defaultWSBase,
		symbols:  symbols,
		interval: interval,
		bars:     make(chan market.Bar, 64),
		dial: func(ctx context.Context, url string) (*websocket.Conn, error) {
			c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
			return c, err
		},
	}, nil
}

// WithBase points the feed at a different stream endpoint, e.g. a testnet.
func (k *Kline) WithBase(base string) *Kline {
	k.base = base
	return k
}

func (k *Kline) Bars() <-chan market.Bar { return k.bars }

func (k *Kline) url() string {
	streams := make([]string, len(k.symbols))
	for i, s := range k.symbols {
		streams[i] = strings.ToLower(s) + "@kline_" + string(k.interval)
	}
	return k.base + "?streams=" + strings.Join(streams, "/")
}

// Run connects and pumps bars until ctx is cancelled.
func (k *Kline) Run(ctx context.Context) error {
	defer close(k.bars)

	backoff := initialBackoff
	for {
		conn, err := k.dial(ctx, k.url())
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("stream: dial failed, retrying in %v: %v", backoff, err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = initialBackoff

		err = k.pump(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("stream: connection lost, reconnecting: %v", err)
	}
}

func (k *Kline) pump(ctx context.Context, conn *websocket.Conn) error {
	// Unblock ReadMessage when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		bar, ok, err := parseKlineMessage(msg)
		if err != nil {
			log.Printf("stream: dropping bad message: %v", err)
			continue
		}
		if !ok {
			continue
		}
		select {
		case k.bars <- bar:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type klineEnvelope struct {
	Data struct {
		Event string `json:"e"`
		Kline struct {
			OpenTime int64  `json:"t"`
			Symbol   string `json:"s"`
			Open     string `json:"o"`
			High     string `json:"h"`
			Low      string `json:"l"`
			Close    string `json:"c"`
			Volume   string `json:"v"`
			Closed   bool   `json:"x"`
		} `json:"k"`
	} `json:"data"`
}

func parseKlineMessage(msg []byte) (market.Bar, bool, error) {
	var env klineEnvelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return market.Bar{}, false, err
	}
	if env.Data.Event != "kline" {
		return market.Bar{}, false, nil
	}

	kl := env.Data.Kline
	open, err := strconv.ParseFloat(kl.Open, 64)
	if err != nil {
		return market.Bar{}, false, fmt.Errorf("bad open %q", kl.Open)
	}
	high, err := strconv.ParseFloat(kl.High, 64)
	if err != nil {
		return market.Bar{}, false, fmt.Errorf("bad high %q", kl.High)
	}
	low, err := strconv.ParseFloat(kl.Low, 64)
	if err != nil {
		return market.Bar{}, false, fmt.Errorf("bad low %q", kl.Low)
	}
	cls, err := strconv.ParseFloat(kl.Close, 64)
	if err != nil {
		return market.Bar{}, false, fmt.Errorf("bad close %q", kl.Close)
	}
	vol, err := strconv.ParseFloat(kl.Volume, 64)
	if err != nil {
		return market.Bar{}, false, fmt.Errorf("bad volume %q", kl.Volume)
	}

	return market.Bar{
		Symbol: kl.Symbol,
		Closed: kl.Closed,
		Candle: market.Candle{
			OpenTime: time.UnixMilli(kl.OpenTime).UTC(),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    cls,
			Volume:   vol,
		},
	}, true, nil
}
