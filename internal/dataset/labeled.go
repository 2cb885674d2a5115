package dataset

import (
	"fmt"

	"github.com/scigolib/kdindex/internal/traits"
)

// Labeled extends DataSet with a parallel array of labels sharing the
// same permutation, per spec.md §3 and
// original_source/kche-tree/labeled_dataset.h.
type Labeled[T traits.Element, L any] struct {
	*DataSet[T]
	labels []L // labels[permuted] matches vectors[permuted].
}

// WrapLabeled builds a labeled data set from vectors and their
// original-order labels; both slices must be the same length.
func WrapLabeled[T traits.Element, L any](dim int, vectors []Vector[T], labels []L) (*Labeled[T, L], error) {
	if len(vectors) != len(labels) {
		return nil, fmt.Errorf("dataset: %d vectors but %d labels", len(vectors), len(labels))
	}
	base, err := Wrap(dim, vectors)
	if err != nil {
		return nil, err
	}
	labelsCopy := make([]L, len(labels))
	copy(labelsCopy, labels)
	return &Labeled[T, L]{DataSet: base, labels: labelsCopy}, nil
}

// Label returns the label of the vector whose original index is i.
func (l *Labeled[T, L]) Label(i uint32) L {
	return l.labels[l.inv[i]]
}

// LabelPermuted returns the label at permuted position p.
func (l *Labeled[T, L]) LabelPermuted(p uint32) L {
	return l.labels[p]
}

// SetLabels replaces the backing labels slice in permuted order (used by
// the kd-tree builder once vectors have been reordered).
func (l *Labeled[T, L]) SetLabels(labels []L) {
	l.labels = labels
}

// Labels returns the labels slice in permuted order. Callers must not
// mutate the returned slice.
func (l *Labeled[T, L]) Labels() []L {
	return l.labels
}
