package engine

// AckStatus is the disposition of an order entry, cancel or replace request.
type AckStatus string

const (
	StatusNewAccepted     AckStatus = "NEW_ACCEPTED"
	StatusPartiallyFilled AckStatus = "PARTIALLY_FILLED"
	StatusFilled          AckStatus = "FILLED"
	StatusRejected        AckStatus = "REJECTED"
	StatusRejectedRisk    AckStatus = "REJECTED_RISK"
	StatusCancelled       AckStatus = "CANCELLED"
	StatusCancelReject    AckStatus = "CANCEL_REJECT"
	StatusReplaced        AckStatus = "REPLACED"
	StatusReplaceReject   AckStatus = "REPLACE_REJECT"
)

// NoOrderID is the engine-order-id sentinel on acknowledgements that do not
// reference a live resting order, including the REPLACED ack of a
// cancel+new fallback (the real id follows on the subsequent NEW ack).
const NoOrderID int64 = -1

// Ack acknowledges one request back to its originator.
type Ack struct {
	ClientOrderID int64
	OrderID       int64
	Status        AckStatus
	TsIn          int64
}

// Fill reports one match. Price is the resting order's price: the resting
// side always sets the trade price.
type Fill struct {
	ClientOrderID  int64
	RestingOrderID int64
	TradeID        int64
	Quantity       int64
	Price          int64
	TsIn           int64
}

// Listener receives every outbound notification from the engine. Calls
// arrive on the sequencer's consumer goroutine, strictly ordered; a slow
// listener stalls matching, so implementations hand heavy work off.
type Listener interface {
	OnAck(ack Ack)
	OnFill(fill Fill)
	OnMarketData(instrument string, bidPrice, askPrice int64)
}
