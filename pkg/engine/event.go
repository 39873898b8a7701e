package engine

import "github.com/tradesim/matchcore/pkg/orderbook"

// Event is the closed set of inputs flowing through the sequencer. Every
// event carries the producer-assigned ordering key and the ingress
// timestamp used for latency accounting. Events are consumed exactly once
// by the engine and then discarded.
//
// The set is closed: NewOrderEvent, CancelEvent, ReplaceEvent and
// MarketDataEvent. Anything else reaching dispatch is a protocol violation
// upstream and halts the sequencer.
type Event interface {
	Seq() int64
	TsIn() int64
}

// EventMeta is the seq/tsIn pair embedded in every event.
type EventMeta struct {
	SeqNum    int64
	Timestamp int64
}

func (m EventMeta) Seq() int64  { return m.SeqNum }
func (m EventMeta) TsIn() int64 { return m.Timestamp }

// NewOrderEvent is an order entry request. Price 0 marks a market order.
type NewOrderEvent struct {
	EventMeta
	ClientOrderID int64
	Side          orderbook.Side
	Quantity      int64
	Price         int64
	Account       string
	Instrument    string
}

// CancelEvent requests removal of the open order with the given client id.
type CancelEvent struct {
	EventMeta
	ClientOrderID int64
}

// ReplaceEvent requests a price/quantity change on an open order.
type ReplaceEvent struct {
	EventMeta
	ClientOrderID int64
	NewQuantity   int64
	NewPrice      int64
}

// MarketDataEvent is a best bid/ask tick for one instrument.
type MarketDataEvent struct {
	EventMeta
	Instrument string
	BidPrice   int64
	AskPrice   int64
}
