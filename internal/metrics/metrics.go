// Package metrics exposes per-book counters and histograms using
// VictoriaMetrics/metrics, keyed per book instance so several books in
// one process don't clash on metric names.
package metrics

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"

	"github.com/axiomx/ironbook/internal/common"
)

// Sink is the set of counters/histograms for a single book instance.
type Sink struct {
	accepted  *metrics.Counter
	rejected  map[string]*metrics.Counter
	trades    *metrics.Counter
	fillDepth *metrics.Histogram
}

// NewSink registers metric families scoped to bookID in the global
// metrics set. Sink has no unregister method: the series stay registered
// for the life of the process, including after the owning book is gone.
func NewSink(bookID string) *Sink {
	labels := fmt.Sprintf(`{book_id=%q}`, bookID)
	s := &Sink{
		accepted:  metrics.GetOrCreateCounter("ironbook_requests_accepted_total" + labels),
		trades:    metrics.GetOrCreateCounter("ironbook_trades_total" + labels),
		fillDepth: metrics.GetOrCreateHistogram("ironbook_match_trades_per_add" + labels),
		rejected:  make(map[string]*metrics.Counter),
	}
	for _, reason := range []string{"duplicate", "fak_unmatchable", "fok_unfillable", "market_no_liquidity", "cancel_unknown", "modify_unknown"} {
		s.rejected[reason] = metrics.GetOrCreateCounter(
			fmt.Sprintf(`ironbook_requests_rejected_total{book_id=%q,reason=%q}`, bookID, reason))
	}
	return s
}

func (s *Sink) Accepted() { s.accepted.Inc() }

func (s *Sink) Rejected(reason string) {
	if c, ok := s.rejected[reason]; ok {
		c.Inc()
	}
}

// Matched records one admission's worth of trades (may be zero).
func (s *Sink) Matched(trades []common.Trade) {
	s.trades.Add(len(trades))
	s.fillDepth.Update(float64(len(trades)))
}
