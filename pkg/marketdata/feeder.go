// Package marketdata simulates a market-data feed with a random walk around
// the last mid price. A real deployment would replace this with a network
// feed handler publishing the same events.
package marketdata

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/tradesim/matchcore/pkg/engine"
)

// EventSink accepts generated ticks. Satisfied by *engine.Sequencer.
type EventSink interface {
	Publish(ev engine.Event) error
}

type Feeder struct {
	sink       EventSink
	instrument string
	interval   time.Duration
	rng        *rand.Rand
	lastPrice  int64
}

func NewFeeder(sink EventSink, instrument string, interval time.Duration, startPrice int64) *Feeder {
	return &Feeder{
		sink:       sink,
		instrument: instrument,
		interval:   interval,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		lastPrice:  startPrice,
	}
}

// Run publishes one tick per interval until the context is cancelled.
func (f *Feeder) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("market data feeder stopped", zap.String("instrument", f.instrument))
			return
		case <-ticker.C:
			if err := f.sink.Publish(f.nextTick()); err != nil {
				return
			}
		}
	}
}

func (f *Feeder) nextTick() *engine.MarketDataEvent {
	delta := int64(f.rng.Intn(5)) - 2
	bid := f.lastPrice + delta - 1
	ask := f.lastPrice + delta + 1
	f.lastPrice = (bid + ask) / 2

	now := time.Now().UnixNano()
	return &engine.MarketDataEvent{
		EventMeta:  engine.EventMeta{SeqNum: now, Timestamp: now},
		Instrument: f.instrument,
		BidPrice:   bid,
		AskPrice:   ask,
	}
}
