package container

import (
	"github.com/scigolib/kdindex/internal/heap"
	"github.com/scigolib/kdindex/internal/traits"
)

// BestKHeap is a fixed-capacity container of the K best entries seen so
// far, backed by a single slice of K slots addressed by two
// internal/heap.Indirect heaps over the same backing array: one
// minimising (top = best), one maximising (top = worst). Push is
// O(log K); intended for larger K than BestKVector is efficient for,
// per spec.md §4.5. Grounded on
// original_source/kche-tree/k-heap.h.
type BestKHeap[T traits.Element] struct {
	k     int
	data  []Entry[T]
	used  int
	best  *heap.Indirect[Entry[T]] // min-heap: top is smallest distance.
	worst *heap.Indirect[Entry[T]] // max-heap: top is largest distance.
}

// NewBestKHeap returns an empty container with capacity k.
func NewBestKHeap[T traits.Element](k int) *BestKHeap[T] {
	data := make([]Entry[T], k)
	h := &BestKHeap[T]{
		k:    k,
		data: data,
	}
	h.best = heap.New(data, func(a, b Entry[T]) bool { return a.SquaredDistance < b.SquaredDistance })
	h.worst = heap.New(data, func(a, b Entry[T]) bool { return a.SquaredDistance > b.SquaredDistance })
	return h
}

// Empty reports whether no entries have been admitted.
func (h *BestKHeap[T]) Empty() bool { return h.used == 0 }

// Full reports whether the container already holds K entries.
func (h *BestKHeap[T]) Full() bool { return h.used == h.k }

// Len returns the number of entries currently admitted.
func (h *BestKHeap[T]) Len() int { return h.used }

// K returns the container's capacity.
func (h *BestKHeap[T]) K() int { return h.k }

// Worst returns the current worst (largest squared-distance) entry.
func (h *BestKHeap[T]) Worst() Entry[T] { return h.worst.Top() }

// Best returns the current best (smallest squared-distance) entry.
func (h *BestKHeap[T]) Best() Entry[T] { return h.best.Top() }

// PopWorst removes and returns the worst entry.
func (h *BestKHeap[T]) PopWorst() Entry[T] {
	slot := h.worst.TopIndex()
	e := h.data[slot]
	h.removeSlot(slot)
	return e
}

// PopBest removes and returns the best entry.
func (h *BestKHeap[T]) PopBest() Entry[T] {
	slot := h.best.TopIndex()
	e := h.data[slot]
	h.removeSlot(slot)
	return e
}

func (h *BestKHeap[T]) removeSlot(slot uint32) {
	h.best.Remove(slot)
	h.worst.Remove(slot)
	h.used--
}

// Push admits e if the container isn't full, or if e beats the current
// worst entry (which is then evicted). Cost: O(log K).
func (h *BestKHeap[T]) Push(e Entry[T]) {
	if h.used < h.k {
		slot := uint32(h.used)
		h.data[slot] = e
		h.used++
		h.best.Push(slot)
		h.worst.Push(slot)
		return
	}
	if h.k == 0 {
		return
	}
	worstSlot := h.worst.TopIndex()
	if !(e.SquaredDistance < h.data[worstSlot].SquaredDistance) {
		return
	}
	h.best.Remove(worstSlot)
	h.worst.Remove(worstSlot)
	h.data[worstSlot] = e
	h.best.Push(worstSlot)
	h.worst.Push(worstSlot)
}
