package publisher

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tradesim/matchcore/pkg/engine"
)

// TradeStream XADDs every fill to a redis stream for downstream consumers.
// Fills are handed off through a buffered channel so the matching thread
// never waits on redis; acks and market data are not streamed.
type TradeStream struct {
	client *redis.Client
	stream string
	fills  chan engine.Fill
	wg     sync.WaitGroup
}

func NewTradeStream(client *redis.Client, stream string) *TradeStream {
	t := &TradeStream{
		client: client,
		stream: stream,
		fills:  make(chan engine.Fill, 1024),
	}
	t.wg.Add(1)
	go t.publishLoop()
	return t
}

// Close drains pending fills and waits for the publisher to finish.
func (t *TradeStream) Close() {
	close(t.fills)
	t.wg.Wait()
}

func (t *TradeStream) OnAck(engine.Ack) {}

func (t *TradeStream) OnFill(fill engine.Fill) {
	select {
	case t.fills <- fill:
	default:
		zap.L().Warn("trade stream queue full, dropping fill", zap.Int64("trade_id", fill.TradeID))
	}
}

func (t *TradeStream) OnMarketData(string, int64, int64) {}

func (t *TradeStream) publishLoop() {
	defer t.wg.Done()
	for fill := range t.fills {
		err := t.client.XAdd(context.Background(), &redis.XAddArgs{
			Stream: t.stream,
			Values: map[string]interface{}{
				"cl_ord_id":        fill.ClientOrderID,
				"resting_order_id": fill.RestingOrderID,
				"trade_id":         fill.TradeID,
				"qty":              fill.Quantity,
				"px":               fill.Price,
				"ts_in":            fill.TsIn,
			},
		}).Err()
		if err != nil {
			zap.L().Warn("trade stream publish failed", zap.Int64("trade_id", fill.TradeID), zap.Error(err))
		}
	}
}
