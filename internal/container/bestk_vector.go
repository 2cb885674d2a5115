package container

import "github.com/scigolib/kdindex/internal/traits"

// BestKVector is a fixed-capacity container of the K best (smallest
// squared-distance) entries seen so far, backed by a contiguous slice
// held in worst-first order: data[0] is the current worst admitted
// candidate, data[len-1] is the best. Insertion is O(K); intended for
// small K (roughly K <= 32), per spec.md §4.5.
type BestKVector[T traits.Element] struct {
	data []Entry[T]
	k    int
}

// NewBestKVector returns an empty container with capacity k.
func NewBestKVector[T traits.Element](k int) *BestKVector[T] {
	return &BestKVector[T]{
		data: make([]Entry[T], 0, k),
		k:    k,
	}
}

// Empty reports whether no entries have been admitted.
func (v *BestKVector[T]) Empty() bool { return len(v.data) == 0 }

// Full reports whether the container already holds K entries.
func (v *BestKVector[T]) Full() bool { return len(v.data) == v.k }

// Len returns the number of entries currently admitted.
func (v *BestKVector[T]) Len() int { return len(v.data) }

// K returns the container's capacity.
func (v *BestKVector[T]) K() int { return v.k }

// Worst returns the current worst (largest squared-distance) entry.
func (v *BestKVector[T]) Worst() Entry[T] { return v.data[0] }

// Best returns the current best (smallest squared-distance) entry.
func (v *BestKVector[T]) Best() Entry[T] { return v.data[len(v.data)-1] }

// PopWorst removes and returns the worst entry.
func (v *BestKVector[T]) PopWorst() Entry[T] {
	e := v.data[0]
	v.data = v.data[1:]
	return e
}

// PopBest removes and returns the best entry.
func (v *BestKVector[T]) PopBest() Entry[T] {
	last := len(v.data) - 1
	e := v.data[last]
	v.data = v.data[:last]
	return e
}

// Push admits e if the container isn't full, or if e beats the current
// worst entry (which is then evicted). Maintains worst-first order via
// an insertion-sort step. Ties are broken by insertion order: an
// equal-distance entry does not displace one already admitted.
func (v *BestKVector[T]) Push(e Entry[T]) {
	if len(v.data) < v.k {
		v.pushNotFull(e)
		return
	}
	if v.k == 0 || !(e.SquaredDistance < v.data[0].SquaredDistance) {
		return
	}
	v.pushFull(e)
}

// pushNotFull inserts e into its sorted position while the container
// still has free capacity, keeping data worst-first (descending). Cost: O(K).
func (v *BestKVector[T]) pushNotFull(e Entry[T]) {
	pos := len(v.data)
	v.data = append(v.data, e)
	for pos > 0 && e.SquaredDistance > v.data[pos-1].SquaredDistance {
		v.data[pos] = v.data[pos-1]
		pos--
	}
	v.data[pos] = e
}

// pushFull drops the current worst entry and inserts e into its sorted
// position. Cost: O(K).
func (v *BestKVector[T]) pushFull(e Entry[T]) {
	pos := 0
	for pos < len(v.data)-1 && e.SquaredDistance < v.data[pos+1].SquaredDistance {
		v.data[pos] = v.data[pos+1]
		pos++
	}
	v.data[pos] = e
}
