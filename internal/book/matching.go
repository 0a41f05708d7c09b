package book

import (
	"github.com/axiomx/ironbook/internal/common"
	"github.com/axiomx/ironbook/internal/eventlog"
)

// Add admits a new order, matches it against the resting opposite side as
// far as its type and price allow, and returns whatever trades resulted.
func (b *OrderBook) Add(id common.OrderID, orderType common.OrderType, side common.Side, price common.Price, qty common.Quantity) []common.Trade {
	b.mu.Lock()
	defer b.mu.Unlock()
	trades, _ := b.addLocked(common.New(id, orderType, side, price, qty))
	return trades
}

// addLocked returns the trades produced (possibly none) and whether the
// order was admitted at all — duplicate/FAK/FOK/market-no-liquidity
// rejections report accepted=false with a nil trade slice.
func (b *OrderBook) addLocked(order *common.Order) (trades []common.Trade, accepted bool) {
	id, side, price, qty, orderType := order.ID(), order.Side(), order.Price(), order.RemainingQty(), order.Type()

	// 1. duplicate id
	if _, exists := b.index[id]; exists {
		b.logRecord(id, eventlog.RejectedDuplicate, "duplicate order id")
		b.recordRejected("duplicate")
		return nil, false
	}

	// 2. FAK preflight
	if orderType == common.FillAndKill && !b.canMatchLocked(side, price) {
		b.logRecord(id, eventlog.RejectedFAKUnmatchable, "fill-and-kill could not find a cross")
		b.recordRejected("fak_unmatchable")
		return nil, false
	}

	// 3. FOK preflight
	if orderType == common.FillOrKill && !b.canBeFullyFilledLocked(side, price, qty) {
		b.logRecord(id, eventlog.RejectedFOKUnfillable, "fill-or-kill could not be fully filled")
		b.recordRejected("fok_unfillable")
		return nil, false
	}

	// 4. market order price rewrite
	if orderType == common.Market {
		opp := b.opposite(side)
		worst, ok := oppositeWorst(opp)
		if !ok {
			b.recordRejected("market_no_liquidity")
			return nil, false
		}
		order.SetMarketPrice(worst)
		price = worst
	}

	// 5. insert at tail of its level
	b.insertLocked(order, side, price)

	// 6. accept
	b.logRecord(id, eventlog.Accepted, "order accepted")
	b.recordAccepted()

	// 7. match
	trades = b.matchOrdersLocked()
	b.recordMatched(trades)
	return trades, true
}

// oppositeWorst finds the worst price on the opposing side map, which is
// the largest ask (when side==Buy, opp is asks) or the smallest bid (when
// side==Sell, opp is bids).
func oppositeWorst(opp *btreeLevels) (common.Price, bool) {
	var worst common.Price
	found := false
	opp.Scan(func(l *priceLevel) bool {
		worst = l.price // Scan visits in comparator order: asks ascending,
		found = true     // bids descending — so the final visit is the worst.
		return true
	})
	return worst, found
}

// insertLocked places order at the tail of its side/price level, creating
// the level if absent, and updates the index and the aggregate-depth
// cache. Caller must hold b.mu.
func (b *OrderBook) insertLocked(order *common.Order, side common.Side, price common.Price) {
	levels := b.sideLevels(side)
	lvl, ok := levels.Get(&priceLevel{price: price})
	if !ok {
		lvl = newPriceLevel(price)
		levels.Set(lvl)
	}
	elem := lvl.pushBack(order)
	b.index[order.ID()] = &indexEntry{order: order, side: side, elem: elem}

	d := b.levels[price]
	if d == nil {
		d = &levelDepth{}
		b.levels[price] = d
	}
	d.orderCount++
	d.aggregateQty += order.RemainingQty()
}

// Modify cancels the existing order and re-admits it under the captured
// type with the new side/price/qty: modify is cancel+add.
func (b *OrderBook) Modify(m common.Modify) []common.Trade {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.index[m.ID]
	if !ok {
		b.logRecord(m.ID, eventlog.ModifyOfUnknown, "modify of unknown order id")
		b.recordRejected("modify_unknown")
		return nil
	}
	orderType := entry.order.Type()

	b.cancelLocked(m.ID)
	trades, accepted := b.addLocked(common.New(m.ID, orderType, m.Side, m.Price, m.Qty))
	if accepted {
		b.logRecord(m.ID, eventlog.ModifyAccepted, "modify applied as cancel+add")
	}
	return trades
}

// Cancel removes a resting order. Cancelling an unknown id is a logged
// no-op, never an error.
func (b *OrderBook) Cancel(id common.OrderID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelLocked(id)
}

func (b *OrderBook) cancelLocked(id common.OrderID) {
	entry, ok := b.index[id]
	if !ok {
		b.logRecord(id, eventlog.CancelOfUnknown, "cancel of unknown order id")
		b.recordRejected("cancel_unknown")
		return
	}

	levels := b.sideLevels(entry.side)
	lvl, found := levels.Get(&priceLevel{price: entry.order.Price()})
	if found {
		lvl.remove(entry.elem)
		if lvl.empty() {
			levels.Delete(lvl)
		}
	}

	delete(b.index, id)

	if d := b.levels[entry.order.Price()]; d != nil {
		d.orderCount--
		d.aggregateQty -= entry.order.RemainingQty()
		if d.orderCount == 0 {
			delete(b.levels, entry.order.Price())
		}
	}

	b.logRecord(id, eventlog.Cancelled, "order cancelled")
}

// canMatchLocked is the FAK preflight: is the opposing side non-empty and
// crossable by price?
func (b *OrderBook) canMatchLocked(side common.Side, price common.Price) bool {
	opp := b.opposite(side)
	best, ok := opp.Min()
	if !ok {
		return false
	}
	if side == common.Buy {
		return price >= best.price
	}
	return price <= best.price
}

// canBeFullyFilledLocked is the FOK preflight. It consults the levels
// depth cache, not the sequences, and accumulates the aggregate quantity
// of every level that both crosses the current top of book and lies
// within the caller's limit, in whatever order the levels map happens to
// iterate (the sum is commutative, so iteration order does not matter).
func (b *OrderBook) canBeFullyFilledLocked(side common.Side, price common.Price, qty common.Quantity) bool {
	opp := b.opposite(side)
	threshold, ok := opp.Min()
	if !ok {
		return false
	}

	var running common.Quantity
	for p, d := range b.levels {
		if !crossesThreshold(side, p, threshold.price) {
			continue
		}
		if !withinLimit(side, p, price) {
			continue
		}
		// A level only contributes if it actually rests on the
		// opposing side; levels is keyed across both sides.
		if _, onOpposite := opp.Get(&priceLevel{price: p}); !onOpposite {
			continue
		}
		running += d.aggregateQty
		if running >= qty {
			return true
		}
	}
	return false
}

func crossesThreshold(side common.Side, levelPrice, threshold common.Price) bool {
	if side == common.Buy {
		return levelPrice >= threshold
	}
	return levelPrice <= threshold
}

func withinLimit(side common.Side, levelPrice, limit common.Price) bool {
	if side == common.Buy {
		return levelPrice <= limit
	}
	return levelPrice >= limit
}

// matchOrdersLocked runs the matching loop to completion, then applies the
// FAK sweep.
func (b *OrderBook) matchOrdersLocked() []common.Trade {
	var trades []common.Trade

	for {
		bestBid, hasBid := b.bids.Min()
		bestAsk, hasAsk := b.asks.Min()
		if !hasBid || !hasAsk || bestBid.price < bestAsk.price {
			break
		}

		for !bestBid.empty() && !bestAsk.empty() {
			bidOrder := bestBid.front()
			askOrder := bestAsk.front()

			q := minQty(bidOrder.RemainingQty(), askOrder.RemainingQty())
			bidOrder.Fill(q)
			askOrder.Fill(q)

			trades = append(trades, common.NewTrade(
				common.Info{OrderID: bidOrder.ID(), Price: bidOrder.Price(), Quantity: q},
				common.Info{OrderID: askOrder.ID(), Price: askOrder.Price(), Quantity: q},
			))

			// The aggregate-depth cache is decremented for both legs
			// regardless of whether either side was fully consumed;
			// order_count is only touched for legs that were.
			b.subtractDepthLocked(bidOrder.Price(), q)
			b.subtractDepthLocked(askOrder.Price(), q)

			if bidOrder.IsFilled() {
				b.popFrontLocked(bestBid, bidOrder)
			}
			if askOrder.IsFilled() {
				b.popFrontLocked(bestAsk, askOrder)
			}
		}

		if bestBid.empty() {
			b.bids.Delete(bestBid)
		}
		if bestAsk.empty() {
			b.asks.Delete(bestAsk)
		}
	}

	b.fakSweepLocked()
	return trades
}

// popFrontLocked removes a fully-filled head-of-level order from its
// level, the index, and the order-count half of the depth cache. The
// quantity half is the caller's responsibility (subtractDepthLocked),
// since it must run even when the order is only partially filled.
func (b *OrderBook) popFrontLocked(lvl *priceLevel, order *common.Order) {
	entry := b.index[order.ID()]
	if entry != nil {
		lvl.remove(entry.elem)
	}
	delete(b.index, order.ID())

	if d := b.levels[order.Price()]; d != nil {
		d.orderCount--
		if d.orderCount == 0 {
			delete(b.levels, order.Price())
		}
	}
}

// subtractDepthLocked subtracts qty from the aggregate-depth cache at
// price. It runs for every matched leg, whether or not that order was
// fully filled; order_count is unchanged.
func (b *OrderBook) subtractDepthLocked(price common.Price, qty common.Quantity) {
	if d := b.levels[price]; d != nil {
		d.aggregateQty -= qty
	}
}

// fakSweepLocked cancels a head-of-book Fill-And-Kill order left resting
// after matching — it must never rest, whether it matched nothing or
// matched partially and ran out of opposing depth.
func (b *OrderBook) fakSweepLocked() {
	for _, levels := range []*btreeLevels{b.bids, b.asks} {
		lvl, ok := levels.Min()
		if !ok {
			continue
		}
		head := lvl.front()
		if head != nil && head.Type() == common.FillAndKill {
			b.cancelLocked(head.ID())
		}
	}
}

func minQty(a, b common.Quantity) common.Quantity {
	if a < b {
		return a
	}
	return b
}
