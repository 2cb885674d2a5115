// Package kdnode implements the bucketed kd-tree node/leaf
// representation, recursive median-split construction, and the
// explore/intersect search passes — spec.md §4.8/§4.9 (components C8 and
// C9). Nodes and leaves live in a flat arena addressed by index rather
// than by pointer, per spec.md §9's Design Notes ("Arena+index is
// preferred"): it keeps the preorder layout cache-friendly and makes
// serialization a plain array walk.
package kdnode

import (
	"sort"

	"github.com/scigolib/kdindex/internal/traits"
)

// Leaf references a contiguous slice of the permuted data set.
type Leaf struct {
	FirstIndex  uint32
	NumElements uint32
}

// Node is a kd-tree branch: every point in its left subtree satisfies
// point[Axis] <= SplitValue, every point in its right subtree satisfies
// point[Axis] >= SplitValue. Left/Right index into the tree's Nodes
// arena, or its Leaves arena when the matching IsLeaf flag is set.
type Node[T traits.Element] struct {
	SplitValue  T
	Axis        uint32
	LeftIsLeaf  bool
	RightIsLeaf bool
	Left        int32
	Right       int32
}

// Ref addresses either a Node or a Leaf within a Tree's arenas.
type Ref struct {
	IsLeaf bool
	Index  int32
}

// Tree is the built kd-tree arena: a preorder-packed array of branch
// nodes, a packed array of leaves, and a reference to the root (which is
// a leaf itself when the whole training set fits in one bucket).
type Tree[T traits.Element] struct {
	Nodes   []Node[T]
	Leaves  []Leaf
	Root    Ref
	HasRoot bool
}

// axisComparer sorts a slice of original-index entries by their value
// along a single axis, matching original_source/kche-tree/kd-node.h's
// AxisComparer functor.
type axisComparer[T traits.Element] struct {
	vectors [][]T
	axis    int
}

func (c axisComparer[T]) less(i, j uint32) bool {
	return c.vectors[i][c.axis] < c.vectors[j][c.axis]
}

// Build recursively splits vectors (indexed by their *original* index)
// into a bucketed kd-tree. dim is the vector dimensionality, bucketSize
// the maximum leaf size. It returns the built arena and the permutation
// array perm, where perm[p] is the original index of the vector that
// ends up at permuted position p — ready to hand to
// internal/dataset.DataSet.SetPermutation (after the caller reorders the
// vectors slice itself by perm).
//
// The recursive split sorts perm in place by the current axis (depth mod
// dim) and picks the median as pivot, stably — ties go to the left
// subtree, per spec.md §4.9 — exactly as
// original_source/trunk/kd-tree.cpp's kd_node::build/kd_node::split.
func Build[T traits.Element](vectors [][]T, dim, bucketSize int) (*Tree[T], []uint32) {
	n := len(vectors)
	perm := make([]uint32, n)
	for i := range perm {
		perm[i] = uint32(i)
	}
	if n == 0 {
		return &Tree[T]{}, perm
	}

	t := &Tree[T]{}
	comparer := axisComparer[T]{vectors: vectors}
	root := buildRecursive(t, comparer, perm, 0, n, 0, dim, bucketSize)
	t.Root = root
	t.HasRoot = true
	return t, perm
}

func buildRecursive[T traits.Element](t *Tree[T], comparer axisComparer[T], perm []uint32, start, n, depth, dim, bucketSize int) Ref {
	if n <= bucketSize {
		idx := len(t.Leaves)
		t.Leaves = append(t.Leaves, Leaf{FirstIndex: uint32(start), NumElements: uint32(n)})
		return Ref{IsLeaf: true, Index: int32(idx)}
	}

	axis := depth % dim
	comparer.axis = axis
	slice := perm[start : start+n]
	sort.SliceStable(slice, func(i, j int) bool {
		return comparer.less(slice[i], slice[j])
	})

	median := ((n + 1) >> 1) - 1
	splitValue := comparer.vectors[slice[median]][axis]
	leftN := median + 1
	rightN := n - leftN

	nodeIdx := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node[T]{}) // Reserve this node's preorder slot before recursing.

	leftRef := buildRecursive(t, comparer, perm, start, leftN, depth+1, dim, bucketSize)
	rightRef := buildRecursive(t, comparer, perm, start+leftN, rightN, depth+1, dim, bucketSize)

	t.Nodes[nodeIdx] = Node[T]{
		SplitValue:  splitValue,
		Axis:        uint32(axis),
		LeftIsLeaf:  leftRef.IsLeaf,
		RightIsLeaf: rightRef.IsLeaf,
		Left:        leftRef.Index,
		Right:       rightRef.Index,
	}
	return Ref{IsLeaf: false, Index: int32(nodeIdx)}
}

// Metric is the distance functor contract the search passes need:
// a full squared distance and an upper-bounded variant used while
// pruning (spec.md §4.7).
type Metric[T traits.Element] interface {
	SquaredDistance(a, b []T) T
	SquaredDistanceBounded(a, b []T, upper T) T
}

// leftChild and rightChild return the Ref for a node's children.
func (n Node[T]) leftChild() Ref  { return Ref{IsLeaf: n.LeftIsLeaf, Index: n.Left} }
func (n Node[T]) rightChild() Ref { return Ref{IsLeaf: n.RightIsLeaf, Index: n.Right} }
