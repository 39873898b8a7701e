package orderbook

import (
	"container/heap"

	"github.com/gammazero/deque"
)

// Book holds resting orders for one instrument under price-time priority.
// Bids and asks are keyed by tick price, each level a FIFO of orders. The
// heaps give O(log n) best-price access over distinct levels; stale prices
// left behind by Remove/Modify are dropped lazily when they surface at the
// top. ordersByID gives near-constant lookup for cancel and replace.
//
// A Book is not safe for concurrent use. The matching engine owns it and
// only ever touches it from the sequencer's consumer goroutine.
type Book struct {
	symbol string

	bids map[int64]*deque.Deque[*Order]
	asks map[int64]*deque.Deque[*Order]

	bidHeap *PriceHeap
	askHeap *PriceHeap

	ordersByID map[int64]*Order
}

func NewBook(symbol string) *Book {
	bidHeap := NewPriceHeap(func(i, j int64) bool { return i > j }) // max-heap
	askHeap := NewPriceHeap(func(i, j int64) bool { return i < j }) // min-heap

	return &Book{
		symbol:     symbol,
		bids:       make(map[int64]*deque.Deque[*Order]),
		asks:       make(map[int64]*deque.Deque[*Order]),
		bidHeap:    bidHeap,
		askHeap:    askHeap,
		ordersByID: make(map[int64]*Order),
	}
}

func (b *Book) Symbol() string {
	return b.symbol
}

// Add appends the order at the tail of its price level, creating the level
// if absent. Validity of price and quantity is the caller's responsibility.
func (b *Book) Add(order *Order) {
	levels, priceHeap := b.side(order.Side)
	level, ok := levels[order.Price]
	if !ok {
		level = &deque.Deque[*Order]{}
		levels[order.Price] = level
		heap.Push(priceHeap, order.Price)
	}
	level.PushBack(order)
	b.ordersByID[order.OrderID] = order
}

// Remove deletes the order with the given id from whichever side holds it.
// Returns false if the id is not resting in this book.
func (b *Book) Remove(orderID int64) bool {
	order, ok := b.ordersByID[orderID]
	if !ok {
		return false
	}
	b.unlink(order)
	delete(b.ordersByID, orderID)
	return true
}

// Modify sets the order's quantity and price and re-appends it at the tail
// of its (possibly new) price level: any change forfeits time priority.
// Returns false if the id is not resting in this book.
func (b *Book) Modify(orderID, newPrice, newQuantity int64) bool {
	order, ok := b.ordersByID[orderID]
	if !ok {
		return false
	}
	b.unlink(order)
	delete(b.ordersByID, orderID)

	order.Price = newPrice
	order.Quantity = newQuantity
	b.Add(order)
	return true
}

// BestBid returns the highest bid price, or false if the bid side is empty.
func (b *Book) BestBid() (int64, bool) {
	return b.best(b.bids, b.bidHeap)
}

// BestAsk returns the lowest ask price, or false if the ask side is empty.
func (b *Book) BestAsk() (int64, bool) {
	return b.best(b.asks, b.askHeap)
}

// IsEmpty reports whether both sides hold no orders.
func (b *Book) IsEmpty() bool {
	return len(b.bids) == 0 && len(b.asks) == 0
}

// MatchAgainst walks the side opposite to incoming, best price first, FIFO
// within a level, consuming up to quantity. A limitPrice of 0 marks a market
// order that crosses any level. Resting orders are decremented in place;
// fully consumed orders are removed before onMatch returns, so a resting
// order with Quantity == 0 inside the callback is already out of the book.
// Returns the unmatched remainder.
func (b *Book) MatchAgainst(incoming Side, limitPrice, quantity int64, onMatch func(resting *Order, matched int64)) int64 {
	var levels map[int64]*deque.Deque[*Order]
	var priceHeap *PriceHeap
	var crosses func(levelPrice int64) bool

	if incoming == BUY {
		levels, priceHeap = b.asks, b.askHeap
		crosses = func(levelPrice int64) bool { return limitPrice == 0 || limitPrice >= levelPrice }
	} else {
		levels, priceHeap = b.bids, b.bidHeap
		crosses = func(levelPrice int64) bool { return limitPrice == 0 || limitPrice <= levelPrice }
	}

	remaining := quantity
	for remaining > 0 {
		bestPrice, ok := b.best(levels, priceHeap)
		if !ok || !crosses(bestPrice) {
			break
		}

		level := levels[bestPrice]
		resting := level.Front()

		matched := min(remaining, resting.Quantity)
		remaining -= matched
		resting.Quantity -= matched

		if resting.Quantity == 0 {
			level.PopFront()
			if level.Len() == 0 {
				delete(levels, bestPrice)
			}
			delete(b.ordersByID, resting.OrderID)
		}

		onMatch(resting, matched)
	}

	return remaining
}

func (b *Book) side(s Side) (map[int64]*deque.Deque[*Order], *PriceHeap) {
	if s == BUY {
		return b.bids, b.bidHeap
	}
	return b.asks, b.askHeap
}

// best pops heap entries whose level no longer exists, then peeks.
func (b *Book) best(levels map[int64]*deque.Deque[*Order], priceHeap *PriceHeap) (int64, bool) {
	for {
		price, ok := priceHeap.Peek()
		if !ok {
			return 0, false
		}
		if _, live := levels[price]; live {
			return price, true
		}
		heap.Pop(priceHeap)
	}
}

// unlink removes the order from its level's FIFO, dropping the level when it
// empties. The heap entry is cleaned lazily by best.
func (b *Book) unlink(order *Order) {
	levels, _ := b.side(order.Side)
	level, ok := levels[order.Price]
	if !ok {
		return
	}
	idx := level.Index(func(o *Order) bool { return o.OrderID == order.OrderID })
	if idx < 0 {
		return
	}
	level.Remove(idx)
	if level.Len() == 0 {
		delete(levels, order.Price)
	}
}
