package kdindex

import "github.com/scigolib/kdindex/internal/traits"

// KnnOption configures a single Knn call. This follows the functional
// options pattern used throughout this library's configuration surface.
type KnnOption[T traits.Element] func(*knnConfig[T])

type knnConfig[T traits.Element] struct {
	epsilon    T
	ignoreSelf bool
	useHeap    bool
}

// WithEpsilon enables approximate search: the pruning test is given a
// head start of epsilon², so a subtree farther than farthest - epsilon²
// from the query is pruned even if it holds a slightly better candidate.
// epsilon = 0 (the default) is exact, deterministic search. Per spec.md
// S5, every returned distance is within epsilon² of the true K-th
// nearest distance.
func WithEpsilon[T traits.Element](epsilon T) KnnOption[T] {
	return func(c *knnConfig[T]) {
		c.epsilon = epsilon
	}
}

// WithIgnoreSelf excludes from the result any candidate whose distance
// to query is exactly zero, for the common case where query is itself a
// member of the training set and should not be returned as its own
// neighbour (spec.md §4.9).
func WithIgnoreSelf[T traits.Element]() KnnOption[T] {
	return func(c *knnConfig[T]) {
		c.ignoreSelf = true
	}
}

// WithHeapContainer selects the best-K heap container (O(log K) insert)
// instead of the default best-K vector (O(K) insert, faster for small
// K), per spec.md §4.5.
func WithHeapContainer[T traits.Element]() KnnOption[T] {
	return func(c *knnConfig[T]) {
		c.useHeap = true
	}
}
