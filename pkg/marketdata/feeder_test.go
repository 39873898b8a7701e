package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/tradesim/matchcore/pkg/engine"
)

type captureSink struct {
	ticks chan *engine.MarketDataEvent
}

func (c *captureSink) Publish(ev engine.Event) error {
	if md, ok := ev.(*engine.MarketDataEvent); ok {
		c.ticks <- md
	}
	return nil
}

func TestFeederPublishesTicks(t *testing.T) {
	sink := &captureSink{ticks: make(chan *engine.MarketDataEvent, 16)}
	f := NewFeeder(sink, "XYZ", time.Millisecond, 10000)

	ctx, cancel := context.WithCancel(context.Background())
	go f.Run(ctx)

	var first, second *engine.MarketDataEvent
	select {
	case first = <-sink.ticks:
	case <-time.After(time.Second):
		t.Fatalf("no tick within a second")
	}
	select {
	case second = <-sink.ticks:
	case <-time.After(time.Second):
		t.Fatalf("no second tick within a second")
	}
	cancel()

	if first.Instrument != "XYZ" {
		t.Errorf("expected instrument XYZ, got %q", first.Instrument)
	}
	if first.BidPrice >= first.AskPrice {
		t.Errorf("bid %d must be below ask %d", first.BidPrice, first.AskPrice)
	}
	if second.Seq() < first.Seq() {
		t.Errorf("tick seq must not go backwards")
	}
}
