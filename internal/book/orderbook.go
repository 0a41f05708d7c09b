// Package book is the matching core: the doubly-indexed book state and
// the admit/modify/cancel/match transformations over it. Every exported
// method that touches book state acquires the book's own mutex for its
// entire duration, including any subsequent matching pass.
package book

import (
	"container/list"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"github.com/tidwall/btree"

	"github.com/axiomx/ironbook/internal/common"
	"github.com/axiomx/ironbook/internal/eventlog"
	"github.com/axiomx/ironbook/internal/metrics"
)

// btreeLevels is one side's price-sorted container of levels: a
// btree.BTreeG[*priceLevel], comparator flipped per side in New.
type btreeLevels = btree.BTreeG[*priceLevel]

// indexEntry is the id→(order, position) pair the index maintains: both
// the owning order and an O(1) removal handle into its level's sequence.
type indexEntry struct {
	order *common.Order
	side  common.Side
	elem  *list.Element
}

// OrderBook is an instantiable value, never a process-wide singleton.
// Construct one per instrument.
type OrderBook struct {
	id uuid.UUID

	mu deadlock.Mutex

	bids *btreeLevels
	asks *btreeLevels

	index  map[common.OrderID]*indexEntry
	levels map[common.Price]*levelDepth

	log     *eventlog.Logger
	metrics *metrics.Sink
}

// New constructs an empty book identified by id. log and sink may be nil;
// a nil logger discards records, a nil sink discards metrics (both are
// convenient for tests that don't care about observability).
func New(id uuid.UUID, log *eventlog.Logger, sink *metrics.Sink) *OrderBook {
	return &OrderBook{
		id: id,
		bids: btree.NewBTreeG(func(a, b *priceLevel) bool {
			return a.price > b.price // descending: best bid first
		}),
		asks: btree.NewBTreeG(func(a, b *priceLevel) bool {
			return a.price < b.price // ascending: best ask first
		}),
		index:   make(map[common.OrderID]*indexEntry),
		levels:  make(map[common.Price]*levelDepth),
		log:     log,
		metrics: sink,
	}
}

func (b *OrderBook) ID() uuid.UUID { return b.id }

// NewAnonymous is New with a freshly generated id, for callers (mostly
// tests) that have no need to correlate a book with external logs or
// metrics under a caller-chosen id.
func NewAnonymous(log *eventlog.Logger, sink *metrics.Sink) *OrderBook {
	return New(uuid.New(), log, sink)
}

func (b *OrderBook) logRecord(id common.OrderID, event eventlog.Event, msg string) {
	if b.log != nil {
		b.log.Record(id, event, msg)
	}
}

func (b *OrderBook) recordAccepted() {
	if b.metrics != nil {
		b.metrics.Accepted()
	}
}

func (b *OrderBook) recordRejected(reason string) {
	if b.metrics != nil {
		b.metrics.Rejected(reason)
	}
}

func (b *OrderBook) recordMatched(trades []common.Trade) {
	if b.metrics != nil {
		b.metrics.Matched(trades)
	}
}

// sideLevels returns the side map an order on side belongs to.
func (b *OrderBook) sideLevels(side common.Side) *btreeLevels {
	if side == common.Buy {
		return b.bids
	}
	return b.asks
}

// opposite returns the side map on the other side of side.
func (b *OrderBook) opposite(side common.Side) *btreeLevels {
	if side == common.Buy {
		return b.asks
	}
	return b.bids
}

// Size returns the total number of resting orders across both sides.
// This always equals len(index).
func (b *OrderBook) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.index)
}

// LevelInfo is one row of a GetOrderInfos snapshot.
type LevelInfo struct {
	Price        common.Price
	AggregateQty common.Quantity
}

// OrderInfos is the get_order_infos() return shape: bids descending,
// asks ascending.
type OrderInfos struct {
	Bids []LevelInfo
	Asks []LevelInfo
}

// GetOrderInfos snapshots aggregate depth per level. Go map iteration
// order is not stable, so levels are visited by scanning the price-sorted
// btrees (which iterate in comparator order for free); each level's
// aggregate quantity is then looked up in the levels map.
func (b *OrderBook) GetOrderInfos() OrderInfos {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out OrderInfos
	b.bids.Scan(func(l *priceLevel) bool {
		out.Bids = append(out.Bids, b.levelInfoLocked(l))
		return true
	})
	b.asks.Scan(func(l *priceLevel) bool {
		out.Asks = append(out.Asks, b.levelInfoLocked(l))
		return true
	})
	return out
}

func (b *OrderBook) levelInfoLocked(l *priceLevel) LevelInfo {
	d := b.levels[l.price]
	if d == nil {
		return LevelInfo{Price: l.price}
	}
	return LevelInfo{Price: l.price, AggregateQty: d.aggregateQty}
}

// BidLevels/AskLevels report the number of distinct resting price levels
// per side.
func (b *OrderBook) BidLevels() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bids.Len()
}

func (b *OrderBook) AskLevels() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.asks.Len()
}
