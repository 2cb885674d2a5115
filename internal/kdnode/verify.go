package kdnode

import (
	"fmt"

	"github.com/scigolib/kdindex/internal/traits"
)

// bound tracks the inherited [lo, hi] interval an ancestor split implies
// for one axis; hasLo/hasHi are false until a split has constrained that
// side.
type bound[T traits.Element] struct {
	hasLo, hasHi bool
	lo, hi       T
}

func freshBounds[T traits.Element](dim int) []bound[T] {
	return make([]bound[T], dim)
}

func cloneBounds[T traits.Element](b []bound[T]) []bound[T] {
	out := make([]bound[T], len(b))
	copy(out, b)
	return out
}

// Verify walks the whole tree checking spec.md's structural invariants:
// every leaf's bucket is within the [lo, hi] bounds implied by the
// splits above it (P2), every position in data is covered by exactly
// one leaf (P3), and axis indices are in range.
func Verify[T traits.Element](t *Tree[T], data [][]T, dim int) error {
	if !t.HasRoot {
		if len(data) != 0 {
			return fmt.Errorf("kdnode: tree has no root but data set has %d vectors", len(data))
		}
		return nil
	}

	covered := make([]bool, len(data))
	if err := verifyRef(t, t.Root, data, dim, freshBounds[T](dim), covered); err != nil {
		return err
	}
	for i, c := range covered {
		if !c {
			return fmt.Errorf("kdnode: position %d is not covered by any leaf", i)
		}
	}
	return nil
}

func verifyRef[T traits.Element](t *Tree[T], ref Ref, data [][]T, dim int, bounds []bound[T], covered []bool) error {
	if ref.IsLeaf {
		if int(ref.Index) >= len(t.Leaves) {
			return fmt.Errorf("kdnode: leaf reference %d out of range", ref.Index)
		}
		leaf := t.Leaves[ref.Index]
		if leaf.NumElements == 0 {
			return fmt.Errorf("kdnode: leaf %d has zero elements", ref.Index)
		}
		end := leaf.FirstIndex + leaf.NumElements
		for i := leaf.FirstIndex; i < end; i++ {
			if int(i) >= len(data) {
				return fmt.Errorf("kdnode: leaf %d references out-of-range position %d", ref.Index, i)
			}
			if covered[i] {
				return fmt.Errorf("kdnode: position %d covered by more than one leaf", i)
			}
			covered[i] = true

			v := data[i]
			for axis, b := range bounds {
				if b.hasLo && v[axis] < b.lo {
					return fmt.Errorf("kdnode: vector at position %d violates lower bound on axis %d", i, axis)
				}
				if b.hasHi && v[axis] > b.hi {
					return fmt.Errorf("kdnode: vector at position %d violates upper bound on axis %d", i, axis)
				}
			}
		}
		return nil
	}

	if int(ref.Index) >= len(t.Nodes) {
		return fmt.Errorf("kdnode: node reference %d out of range", ref.Index)
	}
	node := t.Nodes[ref.Index]
	axis := int(node.Axis)
	if axis < 0 || axis >= dim {
		return fmt.Errorf("kdnode: node %d has out-of-range axis %d", ref.Index, axis)
	}

	leftBounds := cloneBounds(bounds)
	leftBounds[axis] = bound[T]{hasLo: bounds[axis].hasLo, lo: bounds[axis].lo, hasHi: true, hi: node.SplitValue}
	if err := verifyRef(t, node.leftChild(), data, dim, leftBounds, covered); err != nil {
		return err
	}

	rightBounds := cloneBounds(bounds)
	rightBounds[axis] = bound[T]{hasHi: bounds[axis].hasHi, hi: bounds[axis].hi, hasLo: true, lo: node.SplitValue}
	return verifyRef(t, node.rightChild(), data, dim, rightBounds, covered)
}
