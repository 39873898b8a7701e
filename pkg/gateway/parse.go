// Package gateway holds the thin order-entry edge: a line-oriented text
// protocol parsed into engine events. Malformed lines are reported here and
// never become events.
package gateway

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradesim/matchcore/pkg/engine"
	"github.com/tradesim/matchcore/pkg/orderbook"
)

// EventSink accepts parsed events. Satisfied by *engine.Sequencer.
type EventSink interface {
	Publish(ev engine.Event) error
}

// Commands:
//
//	NEW,clOrdId=123,side=B,qty=100,px=101.25,acct=ABC,sym=XYZ
//	CXL,clOrdId=123
//	RPL,clOrdId=123,qty=50,px=101.00
//
// sym is optional on NEW; the gateway's default instrument fills it in.
var (
	newPattern = regexp.MustCompile(`^NEW,clOrdId=(\d+),side=([BS]),qty=(\d+),px=([0-9.]+),acct=([A-Za-z0-9]+)(?:,sym=([A-Za-z0-9]+))?$`)
	cxlPattern = regexp.MustCompile(`^CXL,clOrdId=(\d+)$`)
	rplPattern = regexp.MustCompile(`^RPL,clOrdId=(\d+),qty=(\d+),px=([0-9.]+)$`)
)

var errUnrecognized = errors.New("gateway: unrecognized command")

// priceScale converts decimal currency prices to integer ticks (cents).
var priceScale = decimal.NewFromInt(100)

// ParseLine turns one command line into an engine event, stamping seq and
// tsIn at ingress.
func ParseLine(line, defaultInstrument string) (engine.Event, error) {
	now := time.Now().UnixNano()
	meta := engine.EventMeta{SeqNum: now, Timestamp: now}

	if m := newPattern.FindStringSubmatch(line); m != nil {
		clOrdID, _ := strconv.ParseInt(m[1], 10, 64)
		side := orderbook.BUY
		if m[2] == "S" {
			side = orderbook.SELL
		}
		qty, _ := strconv.ParseInt(m[3], 10, 64)
		price, err := parseTicks(m[4])
		if err != nil {
			return nil, err
		}
		instrument := m[6]
		if instrument == "" {
			instrument = defaultInstrument
		}
		return &engine.NewOrderEvent{
			EventMeta:     meta,
			ClientOrderID: clOrdID,
			Side:          side,
			Quantity:      qty,
			Price:         price,
			Account:       m[5],
			Instrument:    instrument,
		}, nil
	}

	if m := cxlPattern.FindStringSubmatch(line); m != nil {
		clOrdID, _ := strconv.ParseInt(m[1], 10, 64)
		return &engine.CancelEvent{EventMeta: meta, ClientOrderID: clOrdID}, nil
	}

	if m := rplPattern.FindStringSubmatch(line); m != nil {
		clOrdID, _ := strconv.ParseInt(m[1], 10, 64)
		qty, _ := strconv.ParseInt(m[2], 10, 64)
		price, err := parseTicks(m[3])
		if err != nil {
			return nil, err
		}
		return &engine.ReplaceEvent{
			EventMeta:     meta,
			ClientOrderID: clOrdID,
			NewQuantity:   qty,
			NewPrice:      price,
		}, nil
	}

	return nil, errUnrecognized
}

// parseTicks scales a decimal price string to integer ticks. Decimal-to-tick
// conversion lives at the gateway; the core only ever sees integer ticks.
func parseTicks(s string) (int64, error) {
	px, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("gateway: bad price %q: %w", s, err)
	}
	return px.Mul(priceScale).Round(0).IntPart(), nil
}
