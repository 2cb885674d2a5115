package kdindex

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/scigolib/kdindex/internal/container"
	"github.com/scigolib/kdindex/internal/dataset"
	"github.com/scigolib/kdindex/internal/kdnode"
	"github.com/scigolib/kdindex/internal/serialize"
	"github.com/scigolib/kdindex/internal/telemetry"
	"github.com/scigolib/kdindex/internal/traits"
	"github.com/scigolib/kdindex/internal/utils"
)

// DefaultBucketSize is the bucket size Build uses when the caller passes
// zero, per spec.md §4.10.
const DefaultBucketSize = 32

// KDTree is an immutable bucketed kd-tree over a training set of
// D-dimensional vectors, built once by Build and queried any number of
// times afterwards by Knn and AllInRange. A built tree may be queried
// concurrently from multiple goroutines: queries allocate only their own
// search state and never mutate the tree or its data set (spec.md §5).
type KDTree[T traits.Element] struct {
	tree       *kdnode.Tree[T]
	data       *dataset.DataSet[T]
	dim        int
	bucketSize int
	metrics    *telemetry.QueryMetrics
}

// Build constructs a kd-tree over vectors by recursive median-split
// partitioning (spec.md §4.9). bucketSize == 0 uses DefaultBucketSize.
// Returns ErrEmptyDataSet if vectors is empty, or ErrBadBucketSize if
// bucketSize is negative.
func Build[T traits.Element](vectors []Vector[T], bucketSize int) (*KDTree[T], error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyDataSet
	}
	if bucketSize < 0 {
		return nil, ErrBadBucketSize
	}
	if bucketSize == 0 {
		bucketSize = DefaultBucketSize
	}

	dim := len(vectors[0])
	raw := make([][]T, len(vectors))
	dsVectors := make([]dataset.Vector[T], len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("kdindex: vector %d has %d dimensions, want %d", i, len(v), dim)
		}
		raw[i] = []T(v)
		dsVectors[i] = dataset.Vector[T](v)
	}

	tree, perm := kdnode.Build(raw, dim, bucketSize)

	base, err := dataset.Wrap(dim, dsVectors)
	if err != nil {
		return nil, utils.WrapError("kdindex: build", err)
	}
	permuted, err := base.Permute(perm)
	if err != nil {
		return nil, utils.WrapError("kdindex: build", err)
	}

	return &KDTree[T]{
		tree:       tree,
		data:       permuted,
		dim:        dim,
		bucketSize: bucketSize,
		metrics:    telemetry.NewQueryMetrics(),
	}, nil
}

// Len returns the number of vectors in the training set.
func (t *KDTree[T]) Len() int { return t.data.Size() }

// Dim returns the dimensionality of the training set.
func (t *KDTree[T]) Dim() int { return t.dim }

// BucketSize returns the bucket size the tree was built with.
func (t *KDTree[T]) BucketSize() int { return t.bucketSize }

// Metrics returns the query telemetry collector accumulating statistics
// across every Knn and AllInRange call made against this tree.
func (t *KDTree[T]) Metrics() *telemetry.QueryMetrics { return t.metrics }

// permutedVectors returns the underlying tree's data in permuted order,
// the representation internal/kdnode's search routines operate over.
func (t *KDTree[T]) permutedVectors() [][]T {
	out := make([][]T, t.data.Size())
	for i := range out {
		out[i] = []T(t.data.GetPermuted(uint32(i)))
	}
	return out
}

func newKnnContainer[T traits.Element](k int, useHeap bool) container.KContainer[T] {
	if useHeap {
		return container.NewBestKHeap[T](k)
	}
	return container.NewBestKVector[T](k)
}

// Knn returns the K nearest neighbours of query under metric, sorted
// ascending by squared distance (spec.md P4). K == 0 returns an empty
// result, not an error (spec.md §7, QueryError). Results are unpermuted:
// each Neighbor.Index is the training point's original index.
func (t *KDTree[T]) Knn(query Vector[T], k int, metric Metric[T], opts ...KnnOption[T]) []Neighbor[T] {
	if k <= 0 {
		return nil
	}

	cfg := knnConfig[T]{}
	for _, opt := range opts {
		opt(&cfg)
	}

	epsilonSquared := cfg.epsilon * cfg.epsilon
	cont := newKnnContainer[T](k, cfg.useHeap)
	search := kdnode.NewKnnSearch(
		[]T(query), t.permutedVectors(), metric.asNode(), cont, metric.weight(),
		metric.skipIncremental(), cfg.ignoreSelf, epsilonSquared,
	)
	start := time.Now()
	kdnode.RunKnn(t.tree, search)
	t.metrics.RecordQuery(search.NodesVisited, search.LeavesScanned, search.Candidates, search.SubtreesPruned, time.Since(start))

	results := make([]Neighbor[T], 0, cont.Len())
	for cont.Len() > 0 {
		e := cont.PopBest()
		results = append(results, Neighbor[T]{
			Index:           t.data.OriginalIndex(e.Index),
			SquaredDistance: e.SquaredDistance,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].SquaredDistance < results[j].SquaredDistance
	})
	return results
}

// AllInRange returns every training point within radius r of query
// (spec.md P5), as an unordered set with no duplicates. r <= 0 returns
// an empty result, not an error.
func (t *KDTree[T]) AllInRange(query Vector[T], r T, metric Metric[T], ignoreSelf bool) []Neighbor[T] {
	if r <= traits.Zero[T]() {
		return nil
	}

	search := kdnode.NewRangeSearch(
		[]T(query), t.permutedVectors(), metric.asNode(), metric.weight(),
		metric.skipIncremental(), r*r,
	)
	search.IgnoreSelf = ignoreSelf
	start := time.Now()
	kdnode.RunRange(t.tree, search)
	t.metrics.RecordQuery(search.NodesVisited, search.LeavesScanned, search.Candidates, search.SubtreesPruned, time.Since(start))

	results := make([]Neighbor[T], len(search.Results))
	for i, e := range search.Results {
		results[i] = Neighbor[T]{
			Index:           t.data.OriginalIndex(e.Index),
			SquaredDistance: e.SquaredDistance,
		}
	}
	return results
}

// Verify walks the whole tree checking its structural invariants
// (spec.md P2, P3): every leaf's bucket respects the split predicates
// above it, and every position is covered by exactly one leaf. It never
// runs as part of Knn or AllInRange; callers invoke it explicitly, e.g.
// after Deserialize.
func (t *KDTree[T]) Verify() error {
	if err := kdnode.Verify(t.tree, t.permutedVectors(), t.dim); err != nil {
		return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}
	return nil
}

// Serialize writes the tree, its permuted data set, and the permutation
// to w in the self-describing binary format of spec.md §6.
func (t *KDTree[T]) Serialize(w io.Writer) error {
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
	if err := serialize.WriteTree(w, order, t.tree); err != nil {
		return err
	}
	return serialize.WriteTrailer(w, order)
}

// Deserialize reads a stream written by Serialize into a new KDTree.
// Construction happens entirely into a temporary; on any failure the
// caller's existing tree (if any) is left untouched, since a new value
// is only returned on success (spec.md §4.2/§5's build-temporary-then-
// swap discipline).
func Deserialize[T traits.Element](r io.Reader) (*KDTree[T], error) {
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
	data, err := dataset.Wrap(int(header.Dim), dsVectors)
	if err != nil {
		return nil, utils.WrapError("kdindex: deserialize", err)
	}
	data.SetPermutation(perm)

	return &KDTree[T]{
		tree:       tree,
		data:       data,
		dim:        int(header.Dim),
		bucketSize: DefaultBucketSize,
		metrics:    telemetry.NewQueryMetrics(),
	}, nil
}
