package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/tradesim/matchcore/pkg/orderbook"
	"github.com/tradesim/matchcore/pkg/risk"
)

func newTestSequencer(capacity int) (*Sequencer, *recordingListener) {
	listener := &recordingListener{}
	eng := NewEngine(risk.NewGate(1000, 1<<40), listener)
	return NewSequencer(eng, capacity), listener
}

func TestSequencerDispatchesAllKinds(t *testing.T) {
	seq, listener := newTestSequencer(16)
	go seq.Run()

	mustPublish(t, seq, newOrder(1, orderbook.BUY, 10, 10000, "A"))
	mustPublish(t, seq, &ReplaceEvent{ClientOrderID: 1, NewQuantity: 5, NewPrice: 10000})
	mustPublish(t, seq, &CancelEvent{ClientOrderID: 1})
	mustPublish(t, seq, &MarketDataEvent{Instrument: "XYZ", BidPrice: 9999, AskPrice: 10001})
	seq.Stop()

	if len(listener.acks) != 3 {
		t.Fatalf("expected 3 acks, got %d", len(listener.acks))
	}
	want := []AckStatus{StatusNewAccepted, StatusReplaced, StatusCancelled}
	for i, status := range want {
		if listener.acks[i].Status != status {
			t.Errorf("ack %d: expected %s, got %s", i, status, listener.acks[i].Status)
		}
	}
	if len(listener.md) != 1 {
		t.Errorf("expected 1 market data tick, got %d", len(listener.md))
	}
}

func TestSequencerPreservesArrivalOrder(t *testing.T) {
	seq, listener := newTestSequencer(256)

	// Enqueue everything before the consumer starts so arrival order is
	// exactly the publish order.
	for i := int64(1); i <= 100; i++ {
		mustPublish(t, seq, newOrder(i, orderbook.BUY, 1, 10000, "A"))
	}
	go seq.Run()
	seq.Stop()

	if len(listener.acks) != 100 {
		t.Fatalf("expected 100 acks, got %d", len(listener.acks))
	}
	for i, ack := range listener.acks {
		if ack.ClientOrderID != int64(i+1) {
			t.Fatalf("ack %d out of order: client order id %d", i, ack.ClientOrderID)
		}
	}
}

func TestStopDrainsEnqueuedEvents(t *testing.T) {
	seq, listener := newTestSequencer(64)

	for i := int64(1); i <= 50; i++ {
		mustPublish(t, seq, newOrder(i, orderbook.BUY, 1, 10000, "A"))
	}
	go seq.Run()
	seq.Stop()

	if len(listener.acks) != 50 {
		t.Errorf("stop must drain enqueued events, got %d of 50 acks", len(listener.acks))
	}
}

func TestPublishAfterStop(t *testing.T) {
	seq, _ := newTestSequencer(4)
	go seq.Run()
	seq.Stop()

	err := seq.Publish(newOrder(1, orderbook.BUY, 1, 10000, "A"))
	if !errors.Is(err, ErrSequencerStopped) {
		t.Fatalf("expected ErrSequencerStopped, got %v", err)
	}
}

func TestConcurrentProducersWithBackpressure(t *testing.T) {
	// Tiny capacity forces producers to block on the channel; every
	// publish must still land exactly once.
	seq, listener := newTestSequencer(2)
	go seq.Run()

	const producers = 10
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				clOrdID := int64(p*perProducer + i + 1)
				if err := seq.Publish(newOrder(clOrdID, orderbook.BUY, 1, 10000, "A")); err != nil {
					t.Errorf("publish failed: %v", err)
					return
				}
			}
		}(p)
	}
	wg.Wait()
	seq.Stop()

	if len(listener.acks) != producers*perProducer {
		t.Fatalf("expected %d acks, got %d", producers*perProducer, len(listener.acks))
	}

	// Ordering within a single producer is preserved.
	lastSeen := make(map[int64]int64)
	for _, ack := range listener.acks {
		producer := (ack.ClientOrderID - 1) / perProducer
		if ack.ClientOrderID <= lastSeen[producer] {
			t.Fatalf("producer %d events reordered: %d after %d", producer, ack.ClientOrderID, lastSeen[producer])
		}
		lastSeen[producer] = ack.ClientOrderID
	}
}

type bogusEvent struct{ EventMeta }

func TestDispatchUnknownKindPanics(t *testing.T) {
	seq, _ := newTestSequencer(1)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on unknown event kind")
		}
	}()
	seq.dispatch(bogusEvent{})
}

func mustPublish(t *testing.T, seq *Sequencer, ev Event) {
	t.Helper()
	if err := seq.Publish(ev); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
}
