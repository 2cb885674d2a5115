package kdindex

import (
	"github.com/scigolib/kdindex/internal/dataset"
	"github.com/scigolib/kdindex/internal/kdnode"
	"github.com/scigolib/kdindex/internal/matrix"
	"github.com/scigolib/kdindex/internal/metric"
	"github.com/scigolib/kdindex/internal/traits"
)

func newMahalanobisFromDataSet[T traits.Element](ds *dataset.DataSet[T]) (*metric.Mahalanobis[T], bool) {
	return metric.NewFromTrainingSet[T](ds)
}

// Metric is a distance function usable by KDTree.Knn and
// KDTree.AllInRange. The only implementations are EuclideanMetric and
// MahalanobisMetric, returned by NewEuclideanMetric and the
// NewMahalanobis* constructors below; the unexported methods keep the
// search's per-axis weighting and incremental-update policy (spec.md
// §4.8) out of the public surface.
type Metric[T traits.Element] interface {
	SquaredDistance(a, b []T) T
	SquaredDistanceBounded(a, b []T, upper T) T

	asNode() kdnode.Metric[T]
	weight() kdnode.WeightFunc[T]
	skipIncremental() bool
}

func unitWeight[T traits.Element](int) T { return traits.One[T]() }

// EuclideanMetric is the plain squared-Euclidean-distance metric.
type EuclideanMetric[T traits.Element] struct {
	m metric.Euclidean[T]
}

// NewEuclideanMetric returns the Euclidean metric.
func NewEuclideanMetric[T traits.Element]() EuclideanMetric[T] {
	return EuclideanMetric[T]{}
}

func (e EuclideanMetric[T]) SquaredDistance(a, b []T) T { return e.m.SquaredDistance(a, b) }
func (e EuclideanMetric[T]) SquaredDistanceBounded(a, b []T, upper T) T {
	return e.m.SquaredDistanceBounded(a, b, upper)
}
func (e EuclideanMetric[T]) asNode() kdnode.Metric[T]     { return e.m }
func (e EuclideanMetric[T]) weight() kdnode.WeightFunc[T] { return unitWeight[T] }
func (e EuclideanMetric[T]) skipIncremental() bool        { return false }

// MahalanobisMetric computes d²(a,b) = (a-b)ᵀ Σ⁻¹ (a-b) for a stored
// inverse covariance matrix Σ⁻¹. When Σ⁻¹ is diagonal the incremental
// hyperrect updater and the early-exit bounded distance both apply,
// exactly as for Euclidean but scaled per axis; when it isn't, neither
// does, and search degrades to an exhaustive scan with the full
// quadratic form evaluated only at leaves (spec.md §4.7/§4.8).
type MahalanobisMetric[T traits.Element] struct {
	m *metric.Mahalanobis[T]
}

// NewMahalanobisIdentity returns a Mahalanobis metric whose inverse
// covariance is the identity, reducing to Euclidean distance.
func NewMahalanobisIdentity[T traits.Element](dim int) MahalanobisMetric[T] {
	return MahalanobisMetric[T]{m: metric.NewIdentity[T](dim)}
}

// NewMahalanobisFromInverseCovariance returns a Mahalanobis metric using
// a caller-supplied inverse covariance matrix directly.
func NewMahalanobisFromInverseCovariance[T traits.Element](inv *matrix.Symmetric[T]) MahalanobisMetric[T] {
	return MahalanobisMetric[T]{m: metric.NewFromInverseCovariance(inv)}
}

// NewMahalanobisFromDiagonal returns a Mahalanobis metric whose inverse
// covariance is diagonal, with the given per-axis weights.
func NewMahalanobisFromDiagonal[T traits.Element](diagonal []T) MahalanobisMetric[T] {
	return MahalanobisMetric[T]{m: metric.NewFromDiagonal(diagonal)}
}

func (m MahalanobisMetric[T]) SquaredDistance(a, b []T) T { return m.m.SquaredDistance(a, b) }
func (m MahalanobisMetric[T]) SquaredDistanceBounded(a, b []T, upper T) T {
	return m.m.SquaredDistanceBounded(a, b, upper)
}
func (m MahalanobisMetric[T]) asNode() kdnode.Metric[T] { return m.m }

func (m MahalanobisMetric[T]) weight() kdnode.WeightFunc[T] {
	inv := m.m.InverseCovariance()
	return func(axis int) T { return inv.At(axis, axis) }
}

func (m MahalanobisMetric[T]) skipIncremental() bool { return !m.m.IsDiagonal() }

// InverseCovariance returns the metric's stored inverse covariance
// matrix.
func (m MahalanobisMetric[T]) InverseCovariance() *matrix.Symmetric[T] {
	return m.m.InverseCovariance()
}

// IsDiagonal reports whether the inverse covariance matrix is diagonal.
func (m MahalanobisMetric[T]) IsDiagonal() bool {
	return m.m.IsDiagonal()
}

// NewMahalanobisFromTrainingSet computes a Mahalanobis metric from t's
// own training set: the per-dimension mean, the sample covariance, and
// its inverse (spec.md §4.7 construction path ii). On a singular
// covariance matrix it falls back to inverting only the diagonal, and
// ok is false.
func NewMahalanobisFromTrainingSet[T traits.Element](t *KDTree[T]) (MahalanobisMetric[T], bool) {
	inv, ok := newMahalanobisFromDataSet[T](t.data)
	return MahalanobisMetric[T]{m: inv}, ok
}
