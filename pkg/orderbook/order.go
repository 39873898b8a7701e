package orderbook

type Side string

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

// SideSign is +1 for buys and -1 for sells, used for signed position math.
func SideSign(s Side) int64 {
	if s == BUY {
		return 1
	}
	return -1
}

// Order is a resting order. Once added to a book it is owned by the book:
// Quantity and Price are mutated in place on partial fills and modifies.
// Price is in integer ticks and is always > 0 while resting; price 0 is the
// market-order marker on incoming events only and never reaches the book.
type Order struct {
	OrderID       int64
	ClientOrderID int64
	Side          Side
	Quantity      int64
	Price         int64
	Account       string
	TsIn          int64
}
