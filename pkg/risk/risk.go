// Package risk is the admission gate: a pre-trade size and position check
// run inline with matching, plus post-trade position bookkeeping. It holds
// no locks; the matching engine only calls it from the sequencer's consumer
// goroutine.
package risk

import (
	"errors"

	"github.com/tradesim/matchcore/pkg/orderbook"
)

// ErrPositionBreach means a finalized fill pushed an account past its
// position limit even though the pre-trade check passed. Admission control
// and matching have diverged; callers must treat this as unrecoverable.
var ErrPositionBreach = errors.New("risk: position limit breached after fill")

type Gate struct {
	maxOrderSize int64
	maxPosition  int64

	// account -> signed net position, created lazily, process-lifetime
	positions map[string]int64
}

func NewGate(maxOrderSize, maxPosition int64) *Gate {
	return &Gate{
		maxOrderSize: maxOrderSize,
		maxPosition:  maxPosition,
		positions:    make(map[string]int64),
	}
}

// Accept reports whether an order of the given size may enter matching.
// It fails on non-positive or oversized quantity, or when full execution
// would push the account's net position past the limit. Pure predicate,
// no state changes.
func (g *Gate) Accept(account string, side orderbook.Side, quantity int64) bool {
	if quantity <= 0 || quantity > g.maxOrderSize {
		return false
	}
	predicted := g.positions[account] + orderbook.SideSign(side)*quantity
	return abs(predicted) <= g.maxPosition
}

// ApplyFill moves the account's position by sideSign*quantity. Only call
// once the fill is finalized. A resulting breach of the position limit
// returns ErrPositionBreach.
func (g *Gate) ApplyFill(account string, quantity, sideSign int64) error {
	next := g.positions[account] + sideSign*quantity
	if abs(next) > g.maxPosition {
		return ErrPositionBreach
	}
	g.positions[account] = next
	return nil
}

// Position returns the account's current net position, zero if unseen.
func (g *Gate) Position(account string) int64 {
	return g.positions[account]
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
