package journal

import (
	"path/filepath"
	"testing"

	"github.com/tradesim/matchcore/pkg/engine"
)

func TestJournalPersistsAcksAndFills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}

	j.OnAck(engine.Ack{ClientOrderID: 1, OrderID: 10, Status: engine.StatusNewAccepted, TsIn: 100})
	j.OnFill(engine.Fill{ClientOrderID: 2, RestingOrderID: 10, TradeID: 1, Quantity: 5, Price: 10000, TsIn: 200})
	j.OnMarketData("XYZ", 1, 2) // not journaled
	j.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen journal: %v", err)
	}
	defer reopened.Close()

	var count int64
	if err := reopened.db.Model(&ExecutionRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 records, got %d", count)
	}

	var fill ExecutionRecord
	if err := reopened.db.Where("kind = ?", kindFill).First(&fill).Error; err != nil {
		t.Fatalf("load fill: %v", err)
	}
	if fill.TradeID != 1 || fill.Quantity != 5 || fill.Price != 10000 {
		t.Errorf("bad fill record: %+v", fill)
	}
}
