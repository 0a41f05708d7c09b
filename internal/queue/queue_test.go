package queue_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiomx/ironbook/internal/book"
	"github.com/axiomx/ironbook/internal/common"
	"github.com/axiomx/ironbook/internal/queue"
)

func newTestQueue(t *testing.T) (*queue.Queue, func()) {
	t.Helper()
	b := book.NewAnonymous(nil, nil)
	q := queue.New(b)
	return q, q.Close
}

func TestEnqueueAddDrainsIntoBook(t *testing.T) {
	q, closeQ := newTestQueue(t)
	defer closeQ()

	q.EnqueueAdd(1, common.GoodTillCancel, common.Buy, 100, 10)
	q.EnqueueAdd(2, common.GoodTillCancel, common.Sell, 100, 6)

	assert.Equal(t, 1, q.Size())
	infos := q.GetOrderInfos()
	require.Len(t, infos.Bids, 1)
	assert.EqualValues(t, 4, infos.Bids[0].AggregateQty)
}

func TestEnqueueCancelAndModify(t *testing.T) {
	q, closeQ := newTestQueue(t)
	defer closeQ()

	q.EnqueueAdd(1, common.GoodTillCancel, common.Buy, 100, 10)
	q.EnqueueModify(1, common.Sell, 100, 10)
	bidLevels, askLevels := q.BidAskLevels()
	assert.Equal(t, 0, bidLevels)
	assert.Equal(t, 1, askLevels)

	q.EnqueueCancel(1)
	assert.Equal(t, 0, q.Size())
}

// TestFIFOOrderingFromOneSubmitter checks that a single submitter's
// requests are applied in submission order.
func TestFIFOOrderingFromOneSubmitter(t *testing.T) {
	q, closeQ := newTestQueue(t)
	defer closeQ()

	q.EnqueueAdd(1, common.GoodTillCancel, common.Buy, 100, 10)
	q.EnqueueModify(1, common.Buy, 100, 20)
	q.EnqueueModify(1, common.Buy, 100, 30)

	infos := q.GetOrderInfos()
	require.Len(t, infos.Bids, 1)
	assert.EqualValues(t, 30, infos.Bids[0].AggregateQty)
}

// TestConcurrentSubmittersAllApplied checks that many concurrent
// submitters' distinct orders all land exactly once, regardless of
// interleaving: the only ordering guarantee is FIFO-by-enqueue, not a
// particular interleave, so this only checks the no-lost-update property.
func TestConcurrentSubmittersAllApplied(t *testing.T) {
	q, closeQ := newTestQueue(t)
	defer closeQ()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			q.EnqueueAdd(common.OrderID(i+1), common.GoodTillCancel, common.Buy, common.Price(100+i), 1)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n, q.Size())
}

func TestWaitForDrainReturnsOnEmptyQueue(t *testing.T) {
	q, closeQ := newTestQueue(t)
	defer closeQ()
	q.WaitForDrain() // must not block forever on an already-empty queue
}

func TestCloseJoinsWorker(t *testing.T) {
	b := book.NewAnonymous(nil, nil)
	q := queue.New(b)
	q.EnqueueAdd(1, common.GoodTillCancel, common.Buy, 100, 10)
	q.Close()
	assert.Equal(t, 1, b.Size())
}
