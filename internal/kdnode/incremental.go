package kdnode

import "github.com/scigolib/kdindex/internal/traits"

// AxisState tracks, for a single axis during a search descent, the
// query's own coordinate (P) and the nearest coordinate of the current
// bounding hyperrectangle to the query along that axis (Nearest).
// Nearest starts equal to P (an unbounded box contains the query) and
// only departs from it once a split has pushed the box's boundary past
// the query on that axis.
type AxisState[T traits.Element] struct {
	P       T
	Nearest T
}

// WeightFunc returns the per-axis scale factor applied to the Euclidean
// incremental update: 1 for a plain Euclidean metric, Sigma^-1[axis,axis]
// for a diagonal Mahalanobis metric (spec.md §4.7/§4.8).
type WeightFunc[T traits.Element] func(axis int) T

// incrementalUpdate is the mutation applied to a Search's
// HyperrectDistance and per-axis Nearest value upon descending into a
// child on the far side of a split, per
// original_source/kche-tree/incremental.h. A zero-value update (applied
// == false) means nothing needs restoring on the way back up.
type incrementalUpdate[T traits.Element] struct {
	axis         int
	applied      bool
	prevNearest  T
	prevHyperrect T
}

// enterChild applies the incremental hyperrectangle update for
// descending into a branch node's child along axis, with the branch's
// splitValue, when the parent exists (root descents never update: there
// is no bounding box yet). skipIncremental disables the update
// entirely — used for a full (non-diagonal) Mahalanobis metric, whose
// quadratic form doesn't decompose per axis; the hyperrect distance then
// stays at its initial value and no subtree is ever pruned by it,
// degrading gracefully to a full scan for that metric (spec.md §4.7).
func enterChild[T traits.Element](search *Search[T], axis int, splitValue T, childIsLeft bool, weight WeightFunc[T], skipIncremental bool) incrementalUpdate[T] {
	upd := incrementalUpdate[T]{axis: axis}
	if skipIncremental {
		return upd
	}

	nearest := &search.Axis[axis]
	stillNearSide := (childIsLeft && splitValue > nearest.Nearest) ||
		(!childIsLeft && splitValue < nearest.Nearest)
	if stillNearSide {
		return upd
	}

	upd.applied = true
	upd.prevNearest = nearest.Nearest
	upd.prevHyperrect = search.HyperrectDistance

	delta := (splitValue - nearest.Nearest) * (nearest.Nearest + splitValue - 2*nearest.P)
	search.HyperrectDistance += weight(axis) * delta
	nearest.Nearest = splitValue

	return upd
}

// leave restores the Search state this update changed, undoing
// enterChild's effect as the recursive explore/intersect call returns.
func (u incrementalUpdate[T]) leave(search *Search[T]) {
	if !u.applied {
		return
	}
	search.Axis[u.axis].Nearest = u.prevNearest
	search.HyperrectDistance = u.prevHyperrect
}
