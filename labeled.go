package kdindex

import (
	"fmt"
	"io"

	"github.com/scigolib/kdindex/internal/dataset"
	"github.com/scigolib/kdindex/internal/serialize"
	"github.com/scigolib/kdindex/internal/telemetry"
	"github.com/scigolib/kdindex/internal/traits"
	"github.com/scigolib/kdindex/internal/utils"
)

// LabeledNeighbor augments a Neighbor with the label of the training
// point it identifies.
type LabeledNeighbor[T traits.Element, L serialize.Label] struct {
	Neighbor[T]
	Label L
}

// LabeledKDTree is a KDTree whose training points each carry a label
// (a class id or a string tag), recovered alongside every query result.
type LabeledKDTree[T traits.Element, L serialize.Label] struct {
	*KDTree[T]
	labeled *dataset.Labeled[T, L]
}

// BuildLabeled constructs a labeled kd-tree over vectors and a parallel
// slice of one label per vector. Returns an error if the slices differ
// in length, or any error Build itself would return.
func BuildLabeled[T traits.Element, L serialize.Label](vectors []Vector[T], labels []L, bucketSize int) (*LabeledKDTree[T, L], error) {
	if len(vectors) != len(labels) {
		return nil, fmt.Errorf("kdindex: %d vectors but %d labels", len(vectors), len(labels))
	}
	tree, err := Build(vectors, bucketSize)
	if err != nil {
		return nil, err
	}

	permutedLabels := make([]L, len(labels))
	for pos := 0; pos < tree.Len(); pos++ {
		permutedLabels[pos] = labels[tree.data.OriginalIndex(uint32(pos))]
	}
	labeled := &dataset.Labeled[T, L]{DataSet: tree.data}
	labeled.SetLabels(permutedLabels)

	return &LabeledKDTree[T, L]{KDTree: tree, labeled: labeled}, nil
}

// Label returns the label of the training point whose original index
// is originalIndex.
func (t *LabeledKDTree[T, L]) Label(originalIndex uint32) L {
	return t.labeled.Label(originalIndex)
}

// KnnLabeled is Knn with each result's label attached.
func (t *LabeledKDTree[T, L]) KnnLabeled(query Vector[T], k int, metric Metric[T], opts ...KnnOption[T]) []LabeledNeighbor[T, L] {
	base := t.Knn(query, k, metric, opts...)
	out := make([]LabeledNeighbor[T, L], len(base))
	for i, n := range base {
		out[i] = LabeledNeighbor[T, L]{Neighbor: n, Label: t.Label(n.Index)}
	}
	return out
}

// AllInRangeLabeled is AllInRange with each result's label attached.
func (t *LabeledKDTree[T, L]) AllInRangeLabeled(query Vector[T], r T, metric Metric[T], ignoreSelf bool) []LabeledNeighbor[T, L] {
	base := t.AllInRange(query, r, metric, ignoreSelf)
	out := make([]LabeledNeighbor[T, L], len(base))
	for i, n := range base {
		out[i] = LabeledNeighbor[T, L]{Neighbor: n, Label: t.Label(n.Index)}
	}
	return out
}

// Serialize writes the tree, its permuted data set, and labels block to
// w, following the vector payload with one label per vector in the same
// permuted order (length-prefixed for string labels, fixed-width for
// integer labels; see serialize.WriteLabels), per spec.md §6, extended
// per the labeled data set format.
func (t *LabeledKDTree[T, L]) Serialize(w io.Writer) error {
	n := t.data.Size()
	if err := serialize.WriteHeader[T](w, uint32(t.dim), uint32(n)); err != nil {
		return err
	}
	order := utils.HostEndianness()
	if err := serialize.WritePermutation(w, order, t.data.Permutation()); err != nil {
		return err
	}
	if err := serialize.WriteVectors(w, order, t.permutedVectors()); err != nil {
		return err
	}
	if err := serialize.WriteLabels(w, order, t.labeled.Labels()); err != nil {
		return err
	}
	if err := serialize.WriteTree(w, order, t.tree); err != nil {
		return err
	}
	return serialize.WriteTrailer(w, order)
}

// DeserializeLabeled reads a stream written by LabeledKDTree.Serialize
// into a new LabeledKDTree.
func DeserializeLabeled[T traits.Element, L serialize.Label](r io.Reader) (*LabeledKDTree[T, L], error) {
	header, order, err := serialize.ReadHeader[T](r)
	if err != nil {
		return nil, err
	}

	perm, err := serialize.ReadPermutation(r, order, header.N)
	if err != nil {
		return nil, err
	}
	rawVectors, err := serialize.ReadVectors[T](r, order, header.N, header.Dim)
	if err != nil {
		return nil, err
	}
	labels, err := serialize.ReadLabels[L](r, order, header.N)
	if err != nil {
		return nil, err
	}
	tree, err := serialize.ReadTree[T](r, order)
	if err != nil {
		return nil, err
	}
	if err := serialize.ReadTrailer(r, order); err != nil {
		return nil, err
	}

	dsVectors := make([]dataset.Vector[T], len(rawVectors))
	for i, v := range rawVectors {
		dsVectors[i] = dataset.Vector[T](v)
	}
	base, err := dataset.Wrap(int(header.Dim), dsVectors)
	if err != nil {
		return nil, utils.WrapError("kdindex: deserialize labeled", err)
	}
	base.SetPermutation(perm)

	labeled := &dataset.Labeled[T, L]{DataSet: base}
	labeled.SetLabels(labels)

	kt := &KDTree[T]{
		tree:       tree,
		data:       base,
		dim:        int(header.Dim),
		bucketSize: DefaultBucketSize,
		metrics:    telemetry.NewQueryMetrics(),
	}
	return &LabeledKDTree[T, L]{KDTree: kt, labeled: labeled}, nil
}
