package publisher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tradesim/matchcore/pkg/engine"
)

func TestWriteMetricsCSV(t *testing.T) {
	p := New()
	p.now = func() int64 { return 1500 }

	p.OnAck(engine.Ack{ClientOrderID: 1, Status: engine.StatusNewAccepted, TsIn: 1000})
	p.OnFill(engine.Fill{ClientOrderID: 1, TradeID: 1, Quantity: 10, Price: 10000, TsIn: 1000})
	p.OnMarketData("XYZ", 9999, 10001)

	path := filepath.Join(t.TempDir(), "metrics.csv")
	if err := p.WriteMetricsCSV(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	fields := strings.Split(strings.TrimSpace(string(data)), ",")
	if len(fields) != 8 {
		t.Fatalf("expected 8 csv fields, got %d: %q", len(fields), string(data))
	}
	if fields[1] != "1" || fields[2] != "1" || fields[3] != "1" {
		t.Errorf("expected counts 1,1,1, got %v", fields[1:4])
	}

	// Counters reset per flush window.
	if err := p.WriteMetricsCSV(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ = os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 csv lines, got %d", len(lines))
	}
	fields = strings.Split(lines[1], ",")
	if fields[1] != "0" || fields[2] != "0" || fields[3] != "0" {
		t.Errorf("expected counters reset, got %v", fields[1:4])
	}
}

type countingSink struct {
	acks, fills, md int
}

func (c *countingSink) OnAck(engine.Ack)                  { c.acks++ }
func (c *countingSink) OnFill(engine.Fill)                { c.fills++ }
func (c *countingSink) OnMarketData(string, int64, int64) { c.md++ }

func TestFanOutToAttachedSinks(t *testing.T) {
	p := New()
	sink := &countingSink{}
	p.Attach(sink)

	p.OnAck(engine.Ack{TsIn: 1})
	p.OnFill(engine.Fill{TsIn: 1})
	p.OnMarketData("XYZ", 1, 2)

	if sink.acks != 1 || sink.fills != 1 || sink.md != 1 {
		t.Errorf("expected each notification forwarded once, got %+v", sink)
	}
}
