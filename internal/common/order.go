// Package common holds the value types shared by the order book and its
// callers: order identity, side/type enumerations, and the mutable
// resting-order record itself.
package common

import "fmt"

// Price is a non-negative integer tick. Quantity is a non-negative integer
// lot size. OrderID is opaque and unique for the lifetime of a book.
type (
	Price    int64
	Quantity uint64
	OrderID  uint64
)

// Side distinguishes a buy (bid) from a sell (ask) order.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// OrderType selects one of the four admission policies the matching core
// understands. The zero value is GoodTillCancel.
type OrderType int

const (
	GoodTillCancel OrderType = iota
	Market
	FillAndKill
	FillOrKill
)

func (t OrderType) String() string {
	switch t {
	case GoodTillCancel:
		return "good_till_cancel"
	case Market:
		return "market"
	case FillAndKill:
		return "fill_and_kill"
	case FillOrKill:
		return "fill_or_kill"
	default:
		return "unknown"
	}
}

// Order is a single resting (or about-to-rest) order. ID, Type and Side are
// fixed at construction. Price is fixed too, except for a Market order,
// whose price is rewritten exactly once at admission via SetMarketPrice.
type Order struct {
	id           OrderID
	orderType    OrderType
	side         Side
	price        Price
	initialQty   Quantity
	remainingQty Quantity
}

// New builds a resting order with remaining quantity equal to qty.
func New(id OrderID, orderType OrderType, side Side, price Price, qty Quantity) *Order {
	return &Order{
		id:           id,
		orderType:    orderType,
		side:         side,
		price:        price,
		initialQty:   qty,
		remainingQty: qty,
	}
}

func (o *Order) ID() OrderID            { return o.id }
func (o *Order) Type() OrderType        { return o.orderType }
func (o *Order) Side() Side             { return o.side }
func (o *Order) Price() Price           { return o.price }
func (o *Order) InitialQty() Quantity   { return o.initialQty }
func (o *Order) RemainingQty() Quantity { return o.remainingQty }
func (o *Order) IsFilled() bool         { return o.remainingQty == 0 }

// Fill decrements the remaining quantity by qty. Calling it with more than
// the order has left is a programmer error, not a business rejection: the
// matching core never constructs a fill quantity larger than min(bid, ask)
// remaining, so this can only fire on an internal bug.
func (o *Order) Fill(qty Quantity) {
	if qty > o.remainingQty {
		panic(fmt.Sprintf("order %d: fill(%d) exceeds remaining quantity %d", o.id, qty, o.remainingQty))
	}
	o.remainingQty -= qty
}

// SetMarketPrice overwrites the price of a Market order with the worst
// opposing price at admission time. It panics if called on any other
// order type, since that would silently violate the "price is immutable
// after creation" invariant for limit-priced orders.
func (o *Order) SetMarketPrice(price Price) {
	if o.orderType != Market {
		panic(fmt.Sprintf("order %d: SetMarketPrice called on non-market order (type=%s)", o.id, o.orderType))
	}
	o.price = price
}

// Modify is a value aggregate carrying the parameters of a modify request.
// It carries no behaviour: the matching core decides what to do with it.
type Modify struct {
	ID    OrderID
	Side  Side
	Price Price
	Qty   Quantity
}
