package gateway

import (
	"testing"

	"github.com/tradesim/matchcore/pkg/engine"
	"github.com/tradesim/matchcore/pkg/orderbook"
)

func TestParseNew(t *testing.T) {
	ev, err := ParseLine("NEW,clOrdId=123,side=B,qty=100,px=101.25,acct=ABC,sym=XYZ", "DEF")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order, ok := ev.(*engine.NewOrderEvent)
	if !ok {
		t.Fatalf("expected NewOrderEvent, got %T", ev)
	}
	if order.ClientOrderID != 123 || order.Side != orderbook.BUY || order.Quantity != 100 {
		t.Errorf("bad fields: %+v", order)
	}
	if order.Price != 10125 {
		t.Errorf("expected 101.25 to scale to 10125 ticks, got %d", order.Price)
	}
	if order.Account != "ABC" || order.Instrument != "XYZ" {
		t.Errorf("bad account/instrument: %+v", order)
	}
	if order.Seq() == 0 || order.TsIn() == 0 {
		t.Errorf("expected seq and tsIn stamped at ingress")
	}
}

func TestParseNewDefaultInstrument(t *testing.T) {
	ev, err := ParseLine("NEW,clOrdId=1,side=S,qty=5,px=99.00,acct=A", "DEF")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order := ev.(*engine.NewOrderEvent)
	if order.Instrument != "DEF" {
		t.Errorf("expected default instrument, got %q", order.Instrument)
	}
	if order.Side != orderbook.SELL {
		t.Errorf("expected SELL for side=S")
	}
	if order.Price != 9900 {
		t.Errorf("expected 9900 ticks, got %d", order.Price)
	}
}

func TestParseCancel(t *testing.T) {
	ev, err := ParseLine("CXL,clOrdId=42", "DEF")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cxl, ok := ev.(*engine.CancelEvent)
	if !ok {
		t.Fatalf("expected CancelEvent, got %T", ev)
	}
	if cxl.ClientOrderID != 42 {
		t.Errorf("expected client order id 42, got %d", cxl.ClientOrderID)
	}
}

func TestParseReplace(t *testing.T) {
	ev, err := ParseLine("RPL,clOrdId=42,qty=50,px=101.00", "DEF")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rpl, ok := ev.(*engine.ReplaceEvent)
	if !ok {
		t.Fatalf("expected ReplaceEvent, got %T", ev)
	}
	if rpl.ClientOrderID != 42 || rpl.NewQuantity != 50 || rpl.NewPrice != 10100 {
		t.Errorf("bad fields: %+v", rpl)
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	lines := []string{
		"",
		"HELLO",
		"NEW,clOrdId=abc,side=B,qty=100,px=101.25,acct=A",
		"NEW,clOrdId=1,side=X,qty=100,px=101.25,acct=A",
		"CXL",
		"RPL,clOrdId=1,qty=50",
	}
	for _, line := range lines {
		if _, err := ParseLine(line, "DEF"); err == nil {
			t.Errorf("expected parse error for %q", line)
		}
	}
}
