// Package metric implements the Euclidean and Mahalanobis distance
// functors used by the kd-tree search, per spec.md §4.7. Both provide a
// plain squared-distance operator and an upper-bounded variant used
// during pruning.
package metric

import (
	"github.com/scigolib/kdindex/internal/traits"
)

// Euclidean computes squared Euclidean distance: d2(a,b) = sum (a_i - b_i)^2.
type Euclidean[T traits.Element] struct{}

// SquaredDistance returns the full squared Euclidean distance between a
// and b, which must have equal length.
func (Euclidean[T]) SquaredDistance(a, b []T) T {
	var sum T
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// earlyExitPrefix returns the number of dimensions evaluated before the
// first early-exit check, per spec.md §4.7/§9: a 0.25*D-length prefix.
// For D <= 4 that floors to zero, eliminating the amortisation the
// prefix exists for, so per spec.md §9's documented allowance the
// prefix is clamped up to min(D, 4) instead of being left at zero.
func earlyExitPrefix(d int) int {
	prefix := d / 4
	if floor := min(d, 4); prefix < floor {
		prefix = floor
	}
	return prefix
}

// SquaredDistanceBounded returns the squared Euclidean distance between a
// and b, same as SquaredDistance, unless the accumulating partial sum
// exceeds upper first — in which case it returns early with a value that
// is >= upper but not necessarily the true distance. Callers (the
// kd-tree's pruning pass) never depend on the returned value past upper;
// see spec.md P8.
//
// The check runs after an initial unconditional prefix of
// max(D/4, min(D, 4)) dimensions (see earlyExitPrefix), then every 4
// dimensions thereafter — a design
// constant chosen to amortise the comparison's cost, preserved exactly
// per spec.md §9.
func (Euclidean[T]) SquaredDistanceBounded(a, b []T, upper T) T {
	d := len(a)
	prefix := earlyExitPrefix(d)

	var sum T
	i := 0
	for ; i < prefix && i < d; i++ {
		diff := a[i] - b[i]
		sum += diff * diff
	}

	for i < d {
		block := i + 4
		if block > d {
			block = d
		}
		for ; i < block; i++ {
			diff := a[i] - b[i]
			sum += diff * diff
		}
		if i < d && sum > upper {
			return sum
		}
	}
	return sum
}
