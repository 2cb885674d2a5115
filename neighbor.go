package kdindex

import "github.com/scigolib/kdindex/internal/traits"

// Neighbor is the sole result record: the original (pre-permutation)
// index of a training point paired with its squared distance to the
// query point under the metric used for the search.
type Neighbor[T traits.Element] struct {
	Index           uint32
	SquaredDistance T
}
