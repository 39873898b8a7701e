package engine

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrSequencerStopped is returned by Publish once Stop has been called.
var ErrSequencerStopped = errors.New("engine: sequencer stopped")

// Sequencer is the single entry point for all events: a bounded channel
// between arbitrarily many producer goroutines and exactly one consumer
// goroutine that dispatches to the engine. Events are processed in the
// order the channel accepted them — this serialization is what lets the
// engine, the books and the gate run lock-free.
//
// Publish blocks when the channel is full (backpressure, never drop).
type Sequencer struct {
	events chan Event
	engine *Engine

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewSequencer(engine *Engine, capacity int) *Sequencer {
	return &Sequencer{
		events: make(chan Event, capacity),
		engine: engine,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Publish enqueues the event, blocking while the channel is full. After
// Stop it returns ErrSequencerStopped instead of blocking forever.
func (s *Sequencer) Publish(ev Event) error {
	select {
	case <-s.stop:
		return ErrSequencerStopped
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.stop:
		return ErrSequencerStopped
	}
}

// Run drains the channel and dispatches each event synchronously to the
// engine. It must run in exactly one goroutine. On Stop it finishes the
// events already enqueued before returning.
func (s *Sequencer) Run() {
	defer close(s.done)
	zap.L().Info("sequencer started", zap.Int("capacity", cap(s.events)))

	for {
		select {
		case ev := <-s.events:
			s.dispatch(ev)
		case <-s.stop:
			for {
				select {
				case ev := <-s.events:
					s.dispatch(ev)
				default:
					zap.L().Info("sequencer drained, stopping")
					return
				}
			}
		}
	}
}

// Stop signals the consumer to drain and terminate, then waits for it.
// Safe to call more than once.
func (s *Sequencer) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// dispatch routes one event to its handler. The event set is closed; an
// unknown kind means a producer broke the protocol, and continuing would
// risk an incoherent book.
func (s *Sequencer) dispatch(ev Event) {
	switch ev := ev.(type) {
	case *NewOrderEvent:
		s.engine.OnNewOrder(ev)
	case *CancelEvent:
		s.engine.OnCancel(ev)
	case *ReplaceEvent:
		s.engine.OnReplace(ev)
	case *MarketDataEvent:
		s.engine.OnMarketData(ev)
	default:
		panic(fmt.Sprintf("engine: unsupported event type %T", ev))
	}
}
