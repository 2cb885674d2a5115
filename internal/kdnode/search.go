package kdnode

import (
	"math"

	"github.com/scigolib/kdindex/internal/container"
	"github.com/scigolib/kdindex/internal/traits"
)

// Search holds the mutable state threaded through one query's descent:
// the query point, the permuted data it is being compared against, the
// per-axis incremental bookkeeping (C8), and where accepted candidates
// go. The same type drives both Knn (bounded by a KContainer) and range
// search (bounded only by a fixed radius), distinguished by which of
// Container/Results is in play.
type Search[T traits.Element] struct {
	Query []T
	Data  [][]T

	Axis              []AxisState[T]
	HyperrectDistance T
	FarthestDistance  T

	// IgnoreSelf drops any candidate whose computed distance is exactly
	// zero, for the case where the query point is itself a member of the
	// training set. This relies on distance(a, a) == 0, a documented
	// contract on T (spec.md §4.9) rather than tracking the query's own
	// index, since the query point may appear at more than one training
	// position (or not be a training point's exact coordinates at all).
	IgnoreSelf bool

	Metric          Metric[T]
	Weight          WeightFunc[T]
	SkipIncremental bool

	// Knn mode.
	Container container.KContainer[T]

	// Range mode.
	Results []container.Entry[T]

	// Telemetry, accumulated for the caller to fold into its own query
	// metrics once the search completes.
	NodesVisited   int
	LeavesScanned  int
	Candidates     int
	SubtreesPruned int
}

func newAxisState[T traits.Element](query []T) []AxisState[T] {
	axis := make([]AxisState[T], len(query))
	for i, v := range query {
		axis[i] = AxisState[T]{P: v, Nearest: v}
	}
	return axis
}

func positiveInfinity[T traits.Element]() T {
	return T(math.Inf(1))
}

// NewKnnSearch builds search state for a k-nearest-neighbours query.
// cont is the caller-chosen best-K container (spec.md §4.5).
// epsilonSquared seeds HyperrectDistance (spec.md §4.10): a positive
// epsilon gives the pruning test a head start, so subtrees barely
// farther than the current worst candidate are skipped even though they
// might hold a slightly better one — epsilon = 0 is the exact,
// deterministic search.
func NewKnnSearch[T traits.Element](query []T, data [][]T, metric Metric[T], cont container.KContainer[T], weight WeightFunc[T], skipIncremental, ignoreSelf bool, epsilonSquared T) *Search[T] {
	return &Search[T]{
		Query:             query,
		Data:              data,
		Axis:              newAxisState(query),
		HyperrectDistance: epsilonSquared,
		FarthestDistance:  positiveInfinity[T](),
		IgnoreSelf:        ignoreSelf,
		Metric:            metric,
		Weight:            weight,
		SkipIncremental:   skipIncremental,
		Container:         cont,
	}
}

// NewRangeSearch builds search state for an all-in-range query: every
// point within radiusSquared of query is appended to Results, with no
// limit on count.
func NewRangeSearch[T traits.Element](query []T, data [][]T, metric Metric[T], weight WeightFunc[T], skipIncremental bool, radiusSquared T) *Search[T] {
	return &Search[T]{
		Query:            query,
		Data:             data,
		Axis:             newAxisState(query),
		FarthestDistance: radiusSquared,
		Metric:           metric,
		Weight:           weight,
		SkipIncremental:  skipIncremental,
	}
}

func (s *Search[T]) admit(e container.Entry[T]) {
	s.Candidates++
	if s.Container != nil {
		s.Container.Push(e)
		if !s.Container.Empty() {
			s.FarthestDistance = s.Container.Worst().SquaredDistance
		}
		return
	}
	s.Results = append(s.Results, e)
}

func (s *Search[T]) prunable() bool {
	return s.HyperrectDistance < s.FarthestDistance
}

// scanLeaf evaluates every point in a leaf's bucket against the query.
// In bounded mode it uses the metric's early-exit distance and discards
// (without admitting) any candidate whose computed value only proves it
// exceeds the current farthest distance, per spec.md P8 — such a value
// is not the true distance and must never reach the container.
func scanLeaf[T traits.Element](leaf Leaf, search *Search[T], bounded bool) {
	search.LeavesScanned++
	end := leaf.FirstIndex + leaf.NumElements
	for i := leaf.FirstIndex; i < end; i++ {
		vec := search.Data[i]
		var dist T
		if bounded {
			dist = search.Metric.SquaredDistanceBounded(search.Query, vec, search.FarthestDistance)
			if dist > search.FarthestDistance {
				continue
			}
		} else {
			dist = search.Metric.SquaredDistance(search.Query, vec)
		}
		if search.IgnoreSelf && dist == traits.Zero[T]() {
			continue
		}
		search.admit(container.Entry[T]{Index: i, SquaredDistance: dist})
	}
}

// RunKnn walks t from the root in explore mode, filling search.Container
// with up to K nearest neighbours of search.Query.
func RunKnn[T traits.Element](t *Tree[T], search *Search[T]) {
	if !t.HasRoot {
		return
	}
	exploreRef(t, t.Root, 0, traits.Zero[T](), false, false, search)
}

// RunRange walks t from the root in intersect mode, appending to
// search.Results every point within the fixed radius search was built
// with.
func RunRange[T traits.Element](t *Tree[T], search *Search[T]) {
	if !t.HasRoot {
		return
	}
	intersectRef(t, t.Root, 0, traits.Zero[T](), false, false, search)
}

func exploreRef[T traits.Element](t *Tree[T], ref Ref, axis int, splitValue T, childIsLeft, hasParent bool, search *Search[T]) {
	var upd incrementalUpdate[T]
	if hasParent {
		upd = enterChild(search, axis, splitValue, childIsLeft, search.Weight, search.SkipIncremental)
	}
	defer upd.leave(search)

	if ref.IsLeaf {
		scanLeaf(t.Leaves[ref.Index], search, false)
		return
	}
	search.NodesVisited++

	node := t.Nodes[ref.Index]
	nodeAxis := int(node.Axis)
	queryOnLeft := search.Query[nodeAxis] <= node.SplitValue

	var nearRef, farRef Ref
	var nearIsLeft bool
	if queryOnLeft {
		nearRef, nearIsLeft = node.leftChild(), true
		farRef = node.rightChild()
	} else {
		nearRef, nearIsLeft = node.rightChild(), false
		farRef = node.leftChild()
	}

	descend(t, nearRef, nodeAxis, node.SplitValue, nearIsLeft, search)
	descend(t, farRef, nodeAxis, node.SplitValue, !nearIsLeft, search)
}

// descend picks explore or intersect for a child depending on whether
// the container has already filled up — re-checked independently for
// the near and far child, so the near subtree filling the container can
// switch the far subtree straight into pruning mode.
func descend[T traits.Element](t *Tree[T], ref Ref, axis int, splitValue T, childIsLeft bool, search *Search[T]) {
	if search.Container != nil && search.Container.Full() {
		intersectRef(t, ref, axis, splitValue, childIsLeft, true, search)
		return
	}
	exploreRef(t, ref, axis, splitValue, childIsLeft, true, search)
}

func intersectRef[T traits.Element](t *Tree[T], ref Ref, axis int, splitValue T, childIsLeft, hasParent bool, search *Search[T]) {
	var upd incrementalUpdate[T]
	if hasParent {
		upd = enterChild(search, axis, splitValue, childIsLeft, search.Weight, search.SkipIncremental)
	}
	defer upd.leave(search)

	if !search.prunable() {
		search.SubtreesPruned++
		return
	}

	if ref.IsLeaf {
		scanLeaf(t.Leaves[ref.Index], search, true)
		return
	}
	search.NodesVisited++

	node := t.Nodes[ref.Index]
	nodeAxis := int(node.Axis)
	intersectRef(t, node.leftChild(), nodeAxis, node.SplitValue, true, true, search)
	intersectRef(t, node.rightChild(), nodeAxis, node.SplitValue, false, true, search)
}
