// Package telemetry tracks low-overhead query statistics for a kd-tree:
// nodes visited, leaves scanned, candidates admitted, and subtrees
// pruned. It is adapted from the teacher repository's rebalancing
// metrics collector (internal/rebalancing/metrics.go), trimmed down to
// the counters a kd-tree query actually produces — there is no mode or
// workload histogram here, just atomic counters and a snapshot.
package telemetry

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// QueryMetrics accumulates counters across any number of Knn/AllInRange
// calls against one kd-tree. All recording methods are safe for
// concurrent use, matching the facade's documented policy that built
// trees may be queried concurrently.
type QueryMetrics struct {
	queries        atomic.Int64
	nodesVisited   atomic.Int64
	leavesScanned  atomic.Int64
	candidates     atomic.Int64
	subtreesPruned atomic.Int64
	totalQueryTime atomic.Int64 // nanoseconds
}

// NewQueryMetrics returns a zeroed collector.
func NewQueryMetrics() *QueryMetrics {
	return &QueryMetrics{}
}

// RecordQuery records one completed Knn or AllInRange call: how many
// branch nodes were visited, how many leaves were scanned, how many
// candidates were admitted into the result container, how many
// subtrees were pruned by the hyperrect/farthest-distance test, and how
// long the call took.
func (m *QueryMetrics) RecordQuery(nodesVisited, leavesScanned, candidates, subtreesPruned int, elapsed time.Duration) {
	m.queries.Add(1)
	m.nodesVisited.Add(int64(nodesVisited))
	m.leavesScanned.Add(int64(leavesScanned))
	m.candidates.Add(int64(candidates))
	m.subtreesPruned.Add(int64(subtreesPruned))
	m.totalQueryTime.Add(int64(elapsed))
}

// Snapshot is an immutable point-in-time copy of the collector's
// counters, safe to export or log without racing ongoing recording.
type Snapshot struct {
	Queries        int64
	NodesVisited   int64
	LeavesScanned  int64
	Candidates     int64
	SubtreesPruned int64
	AvgQueryTime   time.Duration
}

// Snapshot returns the current counter values.
func (m *QueryMetrics) Snapshot() Snapshot {
	queries := m.queries.Load()
	avg := time.Duration(0)
	if queries > 0 {
		avg = time.Duration(m.totalQueryTime.Load() / queries)
	}
	return Snapshot{
		Queries:        queries,
		NodesVisited:   m.nodesVisited.Load(),
		LeavesScanned:  m.leavesScanned.Load(),
		Candidates:     m.candidates.Load(),
		SubtreesPruned: m.subtreesPruned.Load(),
		AvgQueryTime:   avg,
	}
}

// Reset zeroes all counters.
func (m *QueryMetrics) Reset() {
	m.queries.Store(0)
	m.nodesVisited.Store(0)
	m.leavesScanned.Store(0)
	m.candidates.Store(0)
	m.subtreesPruned.Store(0)
	m.totalQueryTime.Store(0)
}

// String renders a short human-readable summary.
func (m *QueryMetrics) String() string {
	s := m.Snapshot()
	var sb strings.Builder
	fmt.Fprintf(&sb, "queries: %d (avg %v)\n", s.Queries, s.AvgQueryTime)
	fmt.Fprintf(&sb, "nodes visited: %d, leaves scanned: %d\n", s.NodesVisited, s.LeavesScanned)
	fmt.Fprintf(&sb, "candidates admitted: %d, subtrees pruned: %d\n", s.Candidates, s.SubtreesPruned)
	return sb.String()
}
