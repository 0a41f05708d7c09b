package common

import "github.com/google/uuid"

// Info is one leg of a trade: the resting order's own id, the price it
// traded at (its own price — a Market order reports the price it was
// rewritten to at admission), and the matched quantity.
type Info struct {
	OrderID  OrderID
	Price    Price
	Quantity Quantity
}

// Trade is the pair of legs produced by a single match. It is ephemeral:
// the book does not retain it, it is only ever returned to the caller of
// Add/Modify. ID is a correlation id for logs/metrics, not part of the
// book's own state.
type Trade struct {
	ID   uuid.UUID
	Bid  Info
	Ask  Info
}

// NewTrade stamps a fresh correlation id onto a trade pair.
func NewTrade(bid, ask Info) Trade {
	return Trade{ID: uuid.New(), Bid: bid, Ask: ask}
}
