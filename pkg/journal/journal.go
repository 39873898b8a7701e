// Package journal persists outbound acknowledgements and fills to sqlite
// through gorm. It journals notifications only — book state is never
// persisted. Records are handed off through a buffered channel so the
// matching thread never waits on the database.
package journal

import (
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tradesim/matchcore/pkg/engine"
)

const (
	kindAck  = "ACK"
	kindFill = "FILL"

	queueCapacity = 4096
)

type ExecutionRecord struct {
	ID            uint   `gorm:"primaryKey"`
	Kind          string `gorm:"index"`
	ClientOrderID int64  `gorm:"index"`
	OrderID       int64
	TradeID       int64
	Status        string
	Quantity      int64
	Price         int64
	TsIn          int64
	CreatedAt     time.Time
}

type Journal struct {
	db      *gorm.DB
	records chan ExecutionRecord
	wg      sync.WaitGroup
}

// Open connects to the sqlite file, migrates the schema and starts the
// writer goroutine.
func Open(path string) (*Journal, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&ExecutionRecord{}); err != nil {
		return nil, err
	}

	j := &Journal{
		db:      db,
		records: make(chan ExecutionRecord, queueCapacity),
	}
	j.wg.Add(1)
	go j.writeLoop()
	return j, nil
}

// Close drains pending records and waits for the writer to finish.
func (j *Journal) Close() {
	close(j.records)
	j.wg.Wait()
}

func (j *Journal) OnAck(ack engine.Ack) {
	j.enqueue(ExecutionRecord{
		Kind:          kindAck,
		ClientOrderID: ack.ClientOrderID,
		OrderID:       ack.OrderID,
		Status:        string(ack.Status),
		TsIn:          ack.TsIn,
	})
}

func (j *Journal) OnFill(fill engine.Fill) {
	j.enqueue(ExecutionRecord{
		Kind:          kindFill,
		ClientOrderID: fill.ClientOrderID,
		OrderID:       fill.RestingOrderID,
		TradeID:       fill.TradeID,
		Quantity:      fill.Quantity,
		Price:         fill.Price,
		TsIn:          fill.TsIn,
	})
}

func (j *Journal) OnMarketData(string, int64, int64) {}

// enqueue never blocks the matching thread: when the queue is full the
// record is dropped and counted against the log, not against matching.
func (j *Journal) enqueue(rec ExecutionRecord) {
	select {
	case j.records <- rec:
	default:
		zap.L().Warn("journal queue full, dropping record",
			zap.String("kind", rec.Kind),
			zap.Int64("cl_ord_id", rec.ClientOrderID))
	}
}

func (j *Journal) writeLoop() {
	defer j.wg.Done()
	for rec := range j.records {
		if err := j.db.Create(&rec).Error; err != nil {
			zap.L().Error("journal write failed", zap.Error(err))
		}
	}
}
