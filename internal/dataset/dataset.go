// Package dataset implements the permuted training-set handle (spec.md
// §3/§4.6): an owning array of feature vectors plus the permutation and
// inverse-permutation bookkeeping produced by kd-tree construction.
package dataset

import (
	"fmt"

	"github.com/scigolib/kdindex/internal/traits"
)

// Vector mirrors the root package's Vector type without importing it
// (avoiding an import cycle, since the root package depends on this one).
type Vector[T traits.Element] []T

// DataSet is an owning handle over an array of N D-dimensional vectors,
// plus the permutation produced by build-time reordering and its
// inverse. perm[i] is the original index of the vector now stored at
// (permuted) position i; inv[perm[i]] == i for all i.
//
// Go's garbage collector keeps the backing vectors slice alive for as
// long as any DataSet references it, so unlike the original's
// reference-counted shared_ptr<Vector[]>, no manual refcounting is
// needed here — see DESIGN.md OQ-2.
type DataSet[T traits.Element] struct {
	vectors []Vector[T]
	dim     int
	perm    []uint32 // perm[permuted] = original
	inv     []uint32 // inv[original] = permuted
}

// New returns an empty data set with no vectors.
func New[T traits.Element](dim int) *DataSet[T] {
	return &DataSet[T]{dim: dim}
}

// NewSized returns a data set of the given size with uninitialised
// (zero-valued) vectors and the identity permutation.
func NewSized[T traits.Element](dim, size int) *DataSet[T] {
	ds := &DataSet[T]{
		dim:     dim,
		vectors: make([]Vector[T], size),
		perm:    make([]uint32, size),
		inv:     make([]uint32, size),
	}
	for i := range ds.vectors {
		ds.vectors[i] = make(Vector[T], dim)
		ds.perm[i] = uint32(i)
		ds.inv[i] = uint32(i)
	}
	return ds
}

// Wrap builds a data set directly over a caller-provided slice of
// vectors, with the identity permutation. The DataSet takes ownership
// of vectors; the caller must not mutate it afterwards.
func Wrap[T traits.Element](dim int, vectors []Vector[T]) (*DataSet[T], error) {
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("dataset: vector %d has %d dimensions, want %d", i, len(v), dim)
		}
	}
	ds := &DataSet[T]{
		dim:     dim,
		vectors: vectors,
		perm:    make([]uint32, len(vectors)),
		inv:     make([]uint32, len(vectors)),
	}
	for i := range vectors {
		ds.perm[i] = uint32(i)
		ds.inv[i] = uint32(i)
	}
	return ds, nil
}

// Permute returns a new data set holding the same vectors reordered
// according to permutation: the returned set's permuted position i
// holds the vector at this set's permuted position permutation[i]
// (which is its original index when this set still has the identity
// permutation). The
// combined permutation (this set's existing one composed with the new
// one) is tracked so OriginalIndex/PermutedIndex keep referring to the
// data set's ultimate original ordering.
func (d *DataSet[T]) Permute(permutation []uint32) (*DataSet[T], error) {
	if len(permutation) != len(d.vectors) {
		return nil, fmt.Errorf("dataset: permutation length %d does not match data set size %d", len(permutation), len(d.vectors))
	}
	out := &DataSet[T]{
		dim:     d.dim,
		vectors: make([]Vector[T], len(d.vectors)),
		perm:    make([]uint32, len(d.vectors)),
		inv:     make([]uint32, len(d.vectors)),
	}
	for newPos, oldPos := range permutation {
		out.vectors[newPos] = d.vectors[oldPos]
		out.perm[newPos] = d.perm[oldPos]
	}
	for newPos, original := range out.perm {
		out.inv[original] = uint32(newPos)
	}
	return out, nil
}

// Size returns the number of vectors in the data set.
func (d *DataSet[T]) Size() int { return len(d.vectors) }

// Dim returns the dimensionality of the vectors in the data set.
func (d *DataSet[T]) Dim() int { return d.dim }

// Get returns the vector whose *original* index is i.
func (d *DataSet[T]) Get(i uint32) Vector[T] {
	return d.vectors[d.inv[i]]
}

// GetPermuted returns the vector at permuted position p (internal
// build-time order).
func (d *DataSet[T]) GetPermuted(p uint32) Vector[T] {
	return d.vectors[p]
}

// PermutedIndex maps an original index to its position after build-time
// reordering.
func (d *DataSet[T]) PermutedIndex(original uint32) uint32 {
	return d.inv[original]
}

// OriginalIndex maps a permuted position back to its original index.
func (d *DataSet[T]) OriginalIndex(permuted uint32) uint32 {
	return d.perm[permuted]
}

// Permutation returns the perm[permuted] = original array. The returned
// slice must not be mutated by callers.
func (d *DataSet[T]) Permutation() []uint32 {
	return d.perm
}

// SetPermutation installs perm as the data set's permutation array and
// recomputes its inverse. Used by kd-tree construction once the
// recursive split has produced the final ordering of the underlying
// vectors slice. perm must already be applied to d.vectors (i.e.
// d.vectors is in permuted order and perm records what original index
// each position came from).
func (d *DataSet[T]) SetPermutation(perm []uint32) {
	d.perm = perm
	d.inv = make([]uint32, len(perm))
	for pos, original := range perm {
		d.inv[original] = uint32(pos)
	}
}

// SetVectors replaces the backing vectors slice in place (used by the
// kd-tree builder once indices have been sorted into their final
// permuted order).
func (d *DataSet[T]) SetVectors(vectors []Vector[T]) {
	d.vectors = vectors
}

// Equal reports whether two data sets hold the same size and, element by
// element in original-index order, equal vectors.
func (d *DataSet[T]) Equal(other *DataSet[T]) bool {
	if d.Size() != other.Size() || d.Dim() != other.Dim() {
		return false
	}
	for i := uint32(0); i < uint32(d.Size()); i++ {
		a, b := d.Get(i), other.Get(i)
		for k := range a {
			if a[k] != b[k] {
				return false
			}
		}
	}
	return true
}

// Column returns the value at the given axis for every vector in
// permuted order, used by the per-axis mean computation so callers
// don't need a manual double loop over vectors x dimensions. (The
// covariance computation needs two axes of one vector at once and loops
// over GetPermuted instead.)
func (d *DataSet[T]) Column(axis int) func(yield func(T) bool) {
	return func(yield func(T) bool) {
		for _, v := range d.vectors {
			if !yield(v[axis]) {
				return
			}
		}
	}
}
