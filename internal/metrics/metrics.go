// Package metrics captures shared operational counters for the read path and
// the capture workers.
package metrics

import "sync/atomic"

// Metrics holds atomic counters updated across goroutines.
type Metrics struct {
	summaryReads      int64
	transactionReads  int64
	snapshotsCaptured int64
	snapshotsFailed   int64
	malformedSkipped  int64
}

// Snapshot provides a consistent view of the current metrics.
type Snapshot struct {
	SummaryReads      int64 `json:"summary_reads"`
	TransactionReads  int64 `json:"transaction_reads"`
	SnapshotsCaptured int64 `json:"snapshots_captured"`
	SnapshotsFailed   int64 `json:"snapshots_failed"`
	MalformedSkipped  int64 `json:"malformed_skipped"`
}

// New creates a zeroed Metrics instance.
func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncSummaryRead()     { atomic.AddInt64(&m.summaryReads, 1) }
func (m *Metrics) IncTransactionRead() { atomic.AddInt64(&m.transactionReads, 1) }
func (m *Metrics) IncMalformed()       { atomic.AddInt64(&m.malformedSkipped, 1) }

// RecordCapture increments capture counters based on outcome.
func (m *Metrics) RecordCapture(err error) {
	if err != nil {
		atomic.AddInt64(&m.snapshotsFailed, 1)
		return
	}
	atomic.AddInt64(&m.snapshotsCaptured, 1)
}

// Snapshot returns a read-only view of metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		SummaryReads:      atomic.LoadInt64(&m.summaryReads),
		TransactionReads:  atomic.LoadInt64(&m.transactionReads),
		SnapshotsCaptured: atomic.LoadInt64(&m.snapshotsCaptured),
		SnapshotsFailed:   atomic.LoadInt64(&m.snapshotsFailed),
		MalformedSkipped:  atomic.LoadInt64(&m.malformedSkipped),
	}
}
