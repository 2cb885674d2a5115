// Package container implements the two fixed-capacity "best-K" neighbour
// containers described in spec.md §4.5: an insertion-sorted vector
// (grounded on original_source/k-vector.h) for small K, and a dual-heap
// container (grounded on original_source/kche-tree/k-heap.h) for larger
// K. Both implement the same KContainer contract so the kd-tree search
// code (internal/kdnode) can use either interchangeably.
package container

import "github.com/scigolib/kdindex/internal/traits"

// Entry is a candidate neighbour: an index into the permuted data set
// plus its squared distance to the query point.
type Entry[T traits.Element] struct {
	Index           uint32
	SquaredDistance T
}

// KContainer is the shared contract for best-K neighbour containers.
// "Worst" is the currently admitted candidate with the largest squared
// distance; "Best" is the smallest. Push admits e only if the container
// is not yet full, or e is strictly better than the current worst —
// in which case the worst is evicted.
type KContainer[T traits.Element] interface {
	Empty() bool
	Full() bool
	Len() int
	K() int
	Worst() Entry[T]
	Best() Entry[T]
	PopWorst() Entry[T]
	PopBest() Entry[T]
	Push(e Entry[T])
}
