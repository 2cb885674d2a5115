// Package traits defines the numeric capabilities the core index requires
// from an element type, and provides the trivial implementations used for
// the fundamental floating-point case.
//
// spec.md §4.1 describes a compile-time dispatch cluster (fundamental vs.
// custom element types, trivial-equal, trivial-serialization,
// trivial-copy) whose only purpose is to pick a faster code path for
// fundamental T while guaranteeing bit-identical results either way. Go's
// generics don't give us partial specialization to build that dispatch
// cluster, and the element type here is constrained directly to
// golang.org/x/exp/constraints.Float, which already makes every one of
// those traits trivial — there's no second, non-fundamental path to
// dispatch against. See DESIGN.md OQ-1.
package traits

import "golang.org/x/exp/constraints"

// Element is the numeric constraint satisfied by a feature vector's
// component type. The distance type D(T) used for accumulating squared
// distances is always T itself for this constraint.
type Element interface {
	constraints.Float
}

// Zero returns the additive identity of T.
func Zero[T Element]() T {
	return 0
}

// One returns the multiplicative identity of T.
func One[T Element]() T {
	return 1
}

// Abs returns the absolute value of v.
func Abs[T Element](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// Max returns the larger of a and b.
func Max[T Element](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Mean returns the arithmetic mean of values. Returns Zero[T]() for an
// empty slice.
func Mean[T Element](values []T) T {
	if len(values) == 0 {
		return Zero[T]()
	}
	var sum T
	for _, v := range values {
		sum += v
	}
	return sum / T(len(values))
}
