// Package publisher is the engine's notification sink: it logs every ack,
// fill and market-data tick, tracks end-to-end latency in HdrHistogram
// histograms, and fans out to attached secondary sinks (journal, trade
// stream).
package publisher

import (
	"fmt"
	"os"
	"sync"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
	"go.uber.org/zap"

	"github.com/tradesim/matchcore/pkg/engine"
)

// Latencies up to an hour at three significant figures,
// the counters are flushed long before that.
const maxLatencyNanos = 3600000000000

type Publisher struct {
	mu sync.Mutex

	ackLatency  *hdrhistogram.Histogram
	fillLatency *hdrhistogram.Histogram
	ackCount    int64
	fillCount   int64
	mdCount     int64

	now func() int64

	sinks []engine.Listener
}

func New() *Publisher {
	return &Publisher{
		ackLatency:  hdrhistogram.New(1, maxLatencyNanos, 3),
		fillLatency: hdrhistogram.New(1, maxLatencyNanos, 3),
		now:         func() int64 { return time.Now().UnixNano() },
	}
}

// Attach adds a secondary sink invoked after the publisher's own handling.
// Must be called before the sequencer starts.
func (p *Publisher) Attach(l engine.Listener) {
	p.sinks = append(p.sinks, l)
}

func (p *Publisher) OnAck(ack engine.Ack) {
	latency := p.now() - ack.TsIn

	p.mu.Lock()
	_ = p.ackLatency.RecordValue(latency)
	p.ackCount++
	p.mu.Unlock()

	zap.L().Info("ACK",
		zap.Int64("cl_ord_id", ack.ClientOrderID),
		zap.Int64("order_id", ack.OrderID),
		zap.String("status", string(ack.Status)),
		zap.Int64("latency_ns", latency))

	for _, s := range p.sinks {
		s.OnAck(ack)
	}
}

func (p *Publisher) OnFill(fill engine.Fill) {
	latency := p.now() - fill.TsIn

	p.mu.Lock()
	_ = p.fillLatency.RecordValue(latency)
	p.fillCount++
	p.mu.Unlock()

	zap.L().Info("FILL",
		zap.Int64("cl_ord_id", fill.ClientOrderID),
		zap.Int64("resting_order_id", fill.RestingOrderID),
		zap.Int64("trade_id", fill.TradeID),
		zap.Int64("qty", fill.Quantity),
		zap.Int64("px", fill.Price),
		zap.Int64("latency_ns", latency))

	for _, s := range p.sinks {
		s.OnFill(fill)
	}
}

func (p *Publisher) OnMarketData(instrument string, bidPrice, askPrice int64) {
	p.mu.Lock()
	p.mdCount++
	p.mu.Unlock()

	zap.L().Debug("MD_TICK",
		zap.String("instrument", instrument),
		zap.Int64("bid", bidPrice),
		zap.Int64("ask", askPrice))

	for _, s := range p.sinks {
		s.OnMarketData(instrument, bidPrice, askPrice)
	}
}

// WriteMetricsCSV appends one summary line — timestamp, message counts and
// latency percentiles — then resets histograms and counters for the next
// window.
func (p *Publisher) WriteMetricsCSV(fileName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line := fmt.Sprintf("%d,%d,%d,%d,%d,%d,%d,%d\n",
		time.Now().UnixMilli(),
		p.ackCount, p.fillCount, p.mdCount,
		p.ackLatency.ValueAtQuantile(50), p.ackLatency.ValueAtQuantile(99),
		p.fillLatency.ValueAtQuantile(50), p.fillLatency.ValueAtQuantile(99))
	if _, err := f.WriteString(line); err != nil {
		return err
	}

	p.ackLatency.Reset()
	p.fillLatency.Reset()
	p.ackCount = 0
	p.fillCount = 0
	p.mdCount = 0

	return nil
}
