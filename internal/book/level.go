package book

import (
	"container/list"

	"github.com/axiomx/ironbook/internal/common"
)

// priceLevel is the FIFO sequence of resting orders at one price on one
// side. It is backed by container/list so that cancelling an order out of
// the middle of a long queue is O(1) given the position handle stored in
// the book's index.
type priceLevel struct {
	price  common.Price
	orders *list.List
}

func newPriceLevel(price common.Price) *priceLevel {
	return &priceLevel{price: price, orders: list.New()}
}

func (l *priceLevel) empty() bool { return l.orders.Len() == 0 }

func (l *priceLevel) front() *common.Order {
	if e := l.orders.Front(); e != nil {
		return e.Value.(*common.Order)
	}
	return nil
}

// pushBack inserts o at the tail of the level, preserving time priority,
// and returns the position handle to store in the book's index.
func (l *priceLevel) pushBack(o *common.Order) *list.Element {
	return l.orders.PushBack(o)
}

func (l *priceLevel) remove(e *list.Element) {
	l.orders.Remove(e)
}

// levelDepth is the write-through depth cache, keyed by price: aggregate
// remaining quantity and resting-order count for one price, summed across
// whichever single side actually holds that price (both sides can never
// hold the same price once matching has run to completion).
type levelDepth struct {
	aggregateQty common.Quantity
	orderCount   int
}
