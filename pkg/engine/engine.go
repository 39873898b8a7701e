package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tradesim/matchcore/pkg/orderbook"
	"github.com/tradesim/matchcore/pkg/risk"
)

// quote is the last market-data tick seen for an instrument.
type quote struct {
	bidPrice int64
	askPrice int64
}

// tracked is the engine's per-client-order state needed to address cancel
// and replace requests. An entry exists exactly while the order rests.
type tracked struct {
	side       orderbook.Side
	account    string
	instrument string
	orderID    int64
}

// Engine is the matching core: one book per instrument, created lazily,
// with the admission gate consulted inline before any order can match or
// rest. It is single-threaded by contract — every handler runs on the
// sequencer's consumer goroutine, so the books, the gate and the id
// counters need no locks.
type Engine struct {
	gate     *risk.Gate
	listener Listener

	books   map[string]*orderbook.Book
	tracked map[int64]tracked
	quotes  map[string]quote

	nextOrderID int64
	nextTradeID int64
}

func NewEngine(gate *risk.Gate, listener Listener) *Engine {
	return &Engine{
		gate:        gate,
		listener:    listener,
		books:       make(map[string]*orderbook.Book),
		tracked:     make(map[int64]tracked),
		quotes:      make(map[string]quote),
		nextOrderID: 1,
		nextTradeID: 1,
	}
}

// Book returns the order book for the instrument, creating it on first
// reference.
func (e *Engine) Book(instrument string) *orderbook.Book {
	book, ok := e.books[instrument]
	if !ok {
		book = orderbook.NewBook(instrument)
		e.books[instrument] = book
	}
	return book
}

// OnNewOrder runs admission control, matches against the opposite side and
// rests any limit remainder. Market remainders are discarded, never rested.
func (e *Engine) OnNewOrder(ev *NewOrderEvent) {
	if !e.gate.Accept(ev.Account, ev.Side, ev.Quantity) {
		e.listener.OnAck(Ack{ClientOrderID: ev.ClientOrderID, OrderID: NoOrderID, Status: StatusRejectedRisk, TsIn: ev.TsIn()})
		return
	}

	book := e.Book(ev.Instrument)

	fillCount := 0
	remaining := book.MatchAgainst(ev.Side, ev.Price, ev.Quantity, func(resting *orderbook.Order, matched int64) {
		tradeID := e.nextTradeID
		e.nextTradeID++
		fillCount++

		// Both accounts move by the matched quantity, each with its own
		// side's sign. A breach here means admission and matching have
		// diverged; the book can no longer be trusted.
		e.applyFill(resting.Account, matched, orderbook.SideSign(resting.Side))
		e.applyFill(ev.Account, matched, orderbook.SideSign(ev.Side))

		// A fully consumed resting order is already out of the book;
		// its tracking entry must not outlive it.
		if resting.Quantity == 0 {
			delete(e.tracked, resting.ClientOrderID)
		}

		e.listener.OnFill(Fill{
			ClientOrderID:  ev.ClientOrderID,
			RestingOrderID: resting.OrderID,
			TradeID:        tradeID,
			Quantity:       matched,
			Price:          resting.Price,
			TsIn:           ev.TsIn(),
		})
	})

	if remaining > 0 && ev.Price != 0 {
		orderID := e.nextOrderID
		e.nextOrderID++
		book.Add(&orderbook.Order{
			OrderID:       orderID,
			ClientOrderID: ev.ClientOrderID,
			Side:          ev.Side,
			Quantity:      remaining,
			Price:         ev.Price,
			Account:       ev.Account,
			TsIn:          ev.TsIn(),
		})
		e.tracked[ev.ClientOrderID] = tracked{
			side:       ev.Side,
			account:    ev.Account,
			instrument: ev.Instrument,
			orderID:    orderID,
		}
		status := StatusNewAccepted
		if fillCount > 0 {
			status = StatusPartiallyFilled
		}
		e.listener.OnAck(Ack{ClientOrderID: ev.ClientOrderID, OrderID: orderID, Status: status, TsIn: ev.TsIn()})
		return
	}

	// Fully matched, or an unmatched market remainder dropped on the floor.
	status := StatusRejected
	if fillCount > 0 {
		status = StatusFilled
	}
	e.listener.OnAck(Ack{ClientOrderID: ev.ClientOrderID, OrderID: NoOrderID, Status: status, TsIn: ev.TsIn()})
}

// OnCancel removes the open order addressed by client order id. Unknown or
// closed ids get a CANCEL_REJECT, never an error.
func (e *Engine) OnCancel(ev *CancelEvent) {
	t, ok := e.tracked[ev.ClientOrderID]
	if !ok {
		e.listener.OnAck(Ack{ClientOrderID: ev.ClientOrderID, OrderID: NoOrderID, Status: StatusCancelReject, TsIn: ev.TsIn()})
		return
	}

	if !e.Book(t.instrument).Remove(t.orderID) {
		// Tracked but gone from the book: stale entry. Keep it so the
		// inconsistency stays visible instead of silently healing.
		zap.L().Warn("cancel found stale tracking entry",
			zap.Int64("client_order_id", ev.ClientOrderID),
			zap.Int64("order_id", t.orderID))
		e.listener.OnAck(Ack{ClientOrderID: ev.ClientOrderID, OrderID: NoOrderID, Status: StatusCancelReject, TsIn: ev.TsIn()})
		return
	}

	delete(e.tracked, ev.ClientOrderID)
	e.listener.OnAck(Ack{ClientOrderID: ev.ClientOrderID, OrderID: t.orderID, Status: StatusCancelled, TsIn: ev.TsIn()})
}

// OnReplace modifies the open order in place, keeping its engine order id
// but forfeiting time priority. If the order has vanished from the book
// despite being tracked, it falls back to cancel+new under the same client
// order id.
func (e *Engine) OnReplace(ev *ReplaceEvent) {
	t, ok := e.tracked[ev.ClientOrderID]
	if !ok {
		e.listener.OnAck(Ack{ClientOrderID: ev.ClientOrderID, OrderID: NoOrderID, Status: StatusReplaceReject, TsIn: ev.TsIn()})
		return
	}

	book := e.Book(t.instrument)
	if book.Modify(t.orderID, ev.NewPrice, ev.NewQuantity) {
		e.listener.OnAck(Ack{ClientOrderID: ev.ClientOrderID, OrderID: t.orderID, Status: StatusReplaced, TsIn: ev.TsIn()})
		return
	}

	if !book.Remove(t.orderID) {
		e.listener.OnAck(Ack{ClientOrderID: ev.ClientOrderID, OrderID: NoOrderID, Status: StatusReplaceReject, TsIn: ev.TsIn()})
		return
	}

	delete(e.tracked, ev.ClientOrderID)
	e.OnNewOrder(&NewOrderEvent{
		EventMeta:     EventMeta{SeqNum: ev.Seq(), Timestamp: ev.TsIn()},
		ClientOrderID: ev.ClientOrderID,
		Side:          t.side,
		Quantity:      ev.NewQuantity,
		Price:         ev.NewPrice,
		Account:       t.account,
		Instrument:    t.instrument,
	})
	e.listener.OnAck(Ack{ClientOrderID: ev.ClientOrderID, OrderID: NoOrderID, Status: StatusReplaced, TsIn: ev.TsIn()})
}

// OnMarketData records the tick and forwards it. The book and the gate are
// never touched.
func (e *Engine) OnMarketData(ev *MarketDataEvent) {
	e.quotes[ev.Instrument] = quote{bidPrice: ev.BidPrice, askPrice: ev.AskPrice}
	e.listener.OnMarketData(ev.Instrument, ev.BidPrice, ev.AskPrice)
}

// LastQuote returns the last market-data tick seen for the instrument.
func (e *Engine) LastQuote(instrument string) (bidPrice, askPrice int64, ok bool) {
	q, found := e.quotes[instrument]
	return q.bidPrice, q.askPrice, found
}

func (e *Engine) applyFill(account string, quantity, sideSign int64) {
	if err := e.gate.ApplyFill(account, quantity, sideSign); err != nil {
		panic(fmt.Sprintf("matchcore: account %s: %v", account, err))
	}
}
