package book_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiomx/ironbook/internal/book"
	"github.com/axiomx/ironbook/internal/common"
	"github.com/axiomx/ironbook/internal/eventfile"
)

func modifyOf(ev eventfile.Event) common.Modify {
	return common.Modify{ID: ev.ID, Side: ev.Side, Price: ev.Price, Qty: ev.Qty}
}

func applyEvents(t *testing.T, b *book.OrderBook, events []eventfile.Event) {
	t.Helper()
	for _, ev := range events {
		switch ev.Kind {
		case eventfile.KindAdd:
			b.Add(ev.ID, ev.Type, ev.Side, ev.Price, ev.Qty)
		case eventfile.KindModify:
			b.Modify(modifyOf(ev))
		case eventfile.KindCancel:
			b.Cancel(ev.ID)
		default:
			t.Fatalf("unknown event kind %v", ev.Kind)
		}
	}
}

// scenario runs one canonical end-to-end scenario and checks the
// resulting (total_orders, bid_levels, ask_levels) triple.
func scenario(t *testing.T, name, text string) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		events, expect, err := eventfile.Parse(strings.NewReader(text))
		require.NoError(t, err)

		b := book.NewAnonymous(nil, nil)
		applyEvents(t, b, events)

		assert.Equal(t, expect.TotalOrders, b.Size(), "total orders")
		assert.Equal(t, expect.BidLevels, b.BidLevels(), "bid levels")
		assert.Equal(t, expect.AskLevels, b.AskLevels(), "ask levels")
	})
}

func TestCanonicalScenarios(t *testing.T) {
	scenario(t, "Match_GoodTillCancel", `A 1 GoodTillCancel B 100 10
A 2 GoodTillCancel S 100 6

R 1 1 0
`)

	scenario(t, "Match_FillAndKill", `A 1 GoodTillCancel B 100 10
A 2 FillAndKill S 100 15

R 0 0 0
`)

	scenario(t, "Match_FillOrKill_Hit", `A 1 GoodTillCancel S 100 5
A 2 GoodTillCancel S 101 5
A 3 FillOrKill B 101 10

R 0 0 0
`)

	scenario(t, "Match_FillOrKill_Miss", `A 1 GoodTillCancel S 100 5
A 2 FillOrKill B 100 10

R 1 0 1
`)

	scenario(t, "Match_Market", `A 1 GoodTillCancel S 100 5
A 2 GoodTillCancel S 110 5
A 3 Market B 0 8

R 1 0 1
`)

	scenario(t, "Cancel_Success", `A 1 GoodTillCancel B 100 10
C 1

R 0 0 0
`)

	scenario(t, "Modify_Side", `A 1 GoodTillCancel B 100 10
M 1 S 100 10

R 1 0 1
`)
}

func TestMatchGoodTillCancel_Quantities(t *testing.T) {
	b := book.NewAnonymous(nil, nil)
	b.Add(1, common.GoodTillCancel, common.Buy, 100, 10)
	trades := b.Add(2, common.GoodTillCancel, common.Sell, 100, 6)

	require.Len(t, trades, 1)
	assert.EqualValues(t, 6, trades[0].Bid.Quantity)
	assert.EqualValues(t, 1, trades[0].Bid.OrderID)
	assert.EqualValues(t, 2, trades[0].Ask.OrderID)

	infos := b.GetOrderInfos()
	require.Len(t, infos.Bids, 1)
	assert.EqualValues(t, 100, infos.Bids[0].Price)
	assert.EqualValues(t, 4, infos.Bids[0].AggregateQty)
	assert.Empty(t, infos.Asks)
}

func TestDuplicateIDRejected(t *testing.T) {
	b := book.NewAnonymous(nil, nil)
	b.Add(1, common.GoodTillCancel, common.Buy, 100, 10)
	trades := b.Add(1, common.GoodTillCancel, common.Buy, 100, 5)
	assert.Nil(t, trades)
	assert.Equal(t, 1, b.Size())
}

func TestCancelOfUnknownIsNoop(t *testing.T) {
	b := book.NewAnonymous(nil, nil)
	assert.NotPanics(t, func() { b.Cancel(999) })
	assert.Equal(t, 0, b.Size())
}

func TestCancelIdempotent(t *testing.T) {
	b := book.NewAnonymous(nil, nil)
	b.Add(1, common.GoodTillCancel, common.Buy, 100, 10)
	b.Cancel(1)
	assert.NotPanics(t, func() { b.Cancel(1) })
	assert.Equal(t, 0, b.Size())
}

func TestNoCrossedBookInvariant(t *testing.T) {
	b := book.NewAnonymous(nil, nil)
	b.Add(1, common.GoodTillCancel, common.Buy, 99, 10)
	b.Add(2, common.GoodTillCancel, common.Sell, 101, 10)
	infos := b.GetOrderInfos()
	require.Len(t, infos.Bids, 1)
	require.Len(t, infos.Asks, 1)
	assert.Less(t, int64(infos.Bids[0].Price), int64(infos.Asks[0].Price))
}
