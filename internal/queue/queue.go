// Package queue is the single-writer request queue in front of a book:
// many submitters enqueue tagged requests, one worker goroutine applies
// them to the book in FIFO order, and readers may block until the queue
// drains. The worker's lifecycle is supervised by gopkg.in/tomb.v2.
package queue

import (
	"container/list"
	"fmt"
	"strings"
	"sync"

	"github.com/sasha-s/go-deadlock"
	tomb "gopkg.in/tomb.v2"

	"github.com/axiomx/ironbook/internal/book"
	"github.com/axiomx/ironbook/internal/common"
)

// request tags one of the three mutating operations the queue carries.
type requestKind int

const (
	kindAdd requestKind = iota
	kindModify
	kindCancel
)

type request struct {
	kind      requestKind
	id        common.OrderID
	orderType common.OrderType
	side      common.Side
	price     common.Price
	qty       common.Quantity
}

// Queue is the single-writer façade: it owns the FIFO, the worker goroutine, and a
// reference to the book the worker applies requests to. It is not a
// singleton — every Queue is constructed against one caller-owned book.
type Queue struct {
	book *book.OrderBook

	mu      deadlock.Mutex
	cond    *sync.Cond
	pending *list.List

	t *tomb.Tomb
}

// New constructs a queue bound to b and spawns exactly one worker
// goroutine. It does not return until the worker has entered its wait
// state, so a caller's first Enqueue call cannot race worker startup.
func New(b *book.OrderBook) *Queue {
	q := &Queue{
		book:    b,
		pending: list.New(),
		t:       new(tomb.Tomb),
	}
	q.cond = sync.NewCond(&q.mu)

	ready := make(chan struct{})
	q.t.Go(func() error {
		q.worker(ready)
		return nil
	})
	<-ready
	return q
}

// Close stops the worker: requests already queued are drained first, then
// the worker exits. Close blocks until the worker has joined.
func (q *Queue) Close() {
	q.t.Kill(nil)

	// The worker may be parked in cond.Wait(); Kill alone does not wake
	// it; broadcast once more so it re-checks stopRequested().
	q.mu.Lock()
	q.cond.Broadcast()
	q.mu.Unlock()

	_ = q.t.Wait()
}

// worker is the single worker loop: wait for stop∨¬empty, pop one
// request, release the queue lock, dispatch under the book's own mutex
// (book.OrderBook methods take that lock internally), then retake the
// queue lock and broadcast if now empty.
func (q *Queue) worker(ready chan struct{}) {
	q.mu.Lock()
	close(ready)
	for {
		for q.pending.Len() == 0 && !q.stopRequested() {
			q.cond.Wait()
		}
		if q.pending.Len() == 0 && q.stopRequested() {
			q.mu.Unlock()
			return
		}
		elem := q.pending.Front()
		q.pending.Remove(elem)
		q.mu.Unlock()

		q.dispatch(elem.Value.(request))

		q.mu.Lock()
		if q.pending.Len() == 0 {
			q.cond.Broadcast()
		}
	}
}

func (q *Queue) stopRequested() bool {
	select {
	case <-q.t.Dying():
		return true
	default:
		return false
	}
}

func (q *Queue) dispatch(r request) {
	switch r.kind {
	case kindAdd:
		q.book.Add(r.id, r.orderType, r.side, r.price, r.qty)
	case kindModify:
		q.book.Modify(common.Modify{ID: r.id, Side: r.side, Price: r.price, Qty: r.qty})
	case kindCancel:
		q.book.Cancel(r.id)
	default:
		panic("ironbook: unknown request kind reached the dispatcher")
	}
}

func (q *Queue) enqueue(r request) {
	q.mu.Lock()
	q.pending.PushBack(r)
	q.cond.Broadcast()
	q.mu.Unlock()
}

// EnqueueAdd is the non-blocking (except for the brief append) enqueue_add.
func (q *Queue) EnqueueAdd(id common.OrderID, orderType common.OrderType, side common.Side, price common.Price, qty common.Quantity) {
	q.enqueue(request{kind: kindAdd, id: id, orderType: orderType, side: side, price: price, qty: qty})
}

// EnqueueModify is enqueue_modify.
func (q *Queue) EnqueueModify(id common.OrderID, side common.Side, price common.Price, qty common.Quantity) {
	q.enqueue(request{kind: kindModify, id: id, side: side, price: price, qty: qty})
}

// EnqueueCancel is enqueue_cancel.
func (q *Queue) EnqueueCancel(id common.OrderID) {
	q.enqueue(request{kind: kindCancel, id: id})
}

// WaitForDrain blocks until the queue is observed empty. It does not
// guarantee no new request is enqueued after it returns.
func (q *Queue) WaitForDrain() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.pending.Len() != 0 {
		q.cond.Wait()
	}
}

// Size, GetOrderInfos and Display are the blocking-quiescent reads: each
// waits for drain, then takes the book's own mutex.
func (q *Queue) Size() int {
	q.WaitForDrain()
	return q.book.Size()
}

func (q *Queue) GetOrderInfos() book.OrderInfos {
	q.WaitForDrain()
	return q.book.GetOrderInfos()
}

func (q *Queue) BidAskLevels() (bidLevels, askLevels int) {
	q.WaitForDrain()
	return q.book.BidLevels(), q.book.AskLevels()
}

// Display is a human-readable dump of the book. Its format is not stable
// and is not part of any compatibility contract.
func (q *Queue) Display() string {
	infos := q.GetOrderInfos()
	var sb strings.Builder
	sb.WriteString("asks (best first):\n")
	for _, l := range infos.Asks {
		fmt.Fprintf(&sb, "  %6d  x%d\n", l.Price, l.AggregateQty)
	}
	sb.WriteString("bids (best first):\n")
	for _, l := range infos.Bids {
		fmt.Fprintf(&sb, "  %6d  x%d\n", l.Price, l.AggregateQty)
	}
	return sb.String()
}
