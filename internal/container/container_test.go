package container

import "testing"

func drain(t *testing.T, c KContainer[float64]) []Entry[float64] {
	t.Helper()
	var out []Entry[float64]
	for !c.Empty() {
		out = append(out, c.PopBest())
	}
	return out
}

func newContainers(k int) map[string]KContainer[float64] {
	return map[string]KContainer[float64]{
		"vector": NewBestKVector[float64](k),
		"heap":   NewBestKHeap[float64](k),
	}
}

func TestEmptyContainer(t *testing.T) {
	for name, c := range newContainers(3) {
		t.Run(name, func(t *testing.T) {
			if !c.Empty() {
				t.Error("Empty() = false on a fresh container")
			}
			if c.Full() {
				t.Error("Full() = true on a fresh container")
			}
			if c.Len() != 0 {
				t.Errorf("Len() = %d, want 0", c.Len())
			}
			if c.K() != 3 {
				t.Errorf("K() = %d, want 3", c.K())
			}
		})
	}
}

func TestPushBelowCapacityKeepsEverything(t *testing.T) {
	for name, c := range newContainers(5) {
		t.Run(name, func(t *testing.T) {
			entries := []Entry[float64]{
				{Index: 0, SquaredDistance: 3},
				{Index: 1, SquaredDistance: 1},
				{Index: 2, SquaredDistance: 2},
			}
			for _, e := range entries {
				c.Push(e)
			}
			if c.Full() {
				t.Error("Full() = true with fewer than K entries admitted")
			}
			if c.Len() != 3 {
				t.Errorf("Len() = %d, want 3", c.Len())
			}
			if got := c.Best().SquaredDistance; got != 1 {
				t.Errorf("Best().SquaredDistance = %v, want 1", got)
			}
			if got := c.Worst().SquaredDistance; got != 3 {
				t.Errorf("Worst().SquaredDistance = %v, want 3", got)
			}
		})
	}
}

func TestPushEvictsWorstWhenFull(t *testing.T) {
	for name, c := range newContainers(2) {
		t.Run(name, func(t *testing.T) {
			c.Push(Entry[float64]{Index: 0, SquaredDistance: 10})
			c.Push(Entry[float64]{Index: 1, SquaredDistance: 20})
			if !c.Full() {
				t.Fatal("Full() = false after admitting K entries")
			}

			// Worse than both admitted entries: must not be admitted.
			c.Push(Entry[float64]{Index: 2, SquaredDistance: 30})
			if c.Len() != 2 {
				t.Fatalf("Len() = %d after a worse candidate, want 2", c.Len())
			}
			if got := c.Worst().SquaredDistance; got != 20 {
				t.Errorf("Worst().SquaredDistance = %v after rejected push, want 20", got)
			}

			// Better than the current worst: evicts it.
			c.Push(Entry[float64]{Index: 3, SquaredDistance: 5})
			if got := c.Worst().SquaredDistance; got != 10 {
				t.Errorf("Worst().SquaredDistance = %v after eviction, want 10", got)
			}
			if got := c.Best().SquaredDistance; got != 5 {
				t.Errorf("Best().SquaredDistance = %v after eviction, want 5", got)
			}
		})
	}
}

func TestPopOrdering(t *testing.T) {
	for name, c := range newContainers(4) {
		t.Run(name, func(t *testing.T) {
			dists := []float64{4, 1, 3, 2}
			for i, d := range dists {
				c.Push(Entry[float64]{Index: uint32(i), SquaredDistance: d})
			}
			got := drain(t, c)
			want := []float64{1, 2, 3, 4}
			if len(got) != len(want) {
				t.Fatalf("drained %d entries, want %d", len(got), len(want))
			}
			for i, e := range got {
				if e.SquaredDistance != want[i] {
					t.Errorf("drained[%d] = %v, want %v", i, e.SquaredDistance, want[i])
				}
			}
		})
	}
}

func TestZeroCapacityRejectsEverything(t *testing.T) {
	for name, c := range newContainers(0) {
		t.Run(name, func(t *testing.T) {
			c.Push(Entry[float64]{Index: 0, SquaredDistance: 1})
			if c.Len() != 0 {
				t.Errorf("Len() = %d after pushing into a zero-capacity container, want 0", c.Len())
			}
			if !c.Full() {
				t.Error("Full() = false for a zero-capacity container, want true (vacuously full)")
			}
		})
	}
}

func TestPopWorst(t *testing.T) {
	for name, c := range newContainers(3) {
		t.Run(name, func(t *testing.T) {
			c.Push(Entry[float64]{Index: 0, SquaredDistance: 3})
			c.Push(Entry[float64]{Index: 1, SquaredDistance: 1})
			c.Push(Entry[float64]{Index: 2, SquaredDistance: 2})

			e := c.PopWorst()
			if e.SquaredDistance != 3 {
				t.Errorf("PopWorst().SquaredDistance = %v, want 3", e.SquaredDistance)
			}
			if c.Len() != 2 {
				t.Errorf("Len() after PopWorst = %d, want 2", c.Len())
			}
		})
	}
}
