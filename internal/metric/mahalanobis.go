package metric

import (
	"github.com/scigolib/kdindex/internal/dataset"
	"github.com/scigolib/kdindex/internal/matrix"
	"github.com/scigolib/kdindex/internal/traits"
)

// DataSetLike is the minimal view a Mahalanobis metric needs of a
// training set to compute mean and covariance, satisfied by
// *internal/dataset.DataSet[T].
type DataSetLike[T traits.Element] interface {
	Size() int
	Dim() int
	GetPermuted(uint32) dataset.Vector[T]
	Column(axis int) func(yield func(T) bool)
}

// Mahalanobis computes d2(a,b) = (a-b)^T * Sigma^-1 * (a-b), where
// Sigma^-1 is a stored symmetric matrix (spec.md §4.7).
type Mahalanobis[T traits.Element] struct {
	inv        *matrix.Symmetric[T]
	isDiagonal bool
}

// NewIdentity returns a Mahalanobis metric whose inverse covariance is
// the identity matrix, reducing distance computation to Euclidean.
func NewIdentity[T traits.Element](dim int) *Mahalanobis[T] {
	return &Mahalanobis[T]{inv: matrix.New[T](dim), isDiagonal: true}
}

// NewFromInverseCovariance returns a Mahalanobis metric using a
// caller-supplied inverse covariance matrix directly.
func NewFromInverseCovariance[T traits.Element](inv *matrix.Symmetric[T]) *Mahalanobis[T] {
	return &Mahalanobis[T]{inv: inv, isDiagonal: inv.IsDiagonal()}
}

// NewFromDiagonal returns a Mahalanobis metric whose inverse covariance
// is diagonal, with the given per-axis weights.
func NewFromDiagonal[T traits.Element](diagonal []T) *Mahalanobis[T] {
	m := matrix.NewZero[T](len(diagonal))
	for i, v := range diagonal {
		m.Set(i, i, v)
	}
	return &Mahalanobis[T]{inv: m, isDiagonal: true}
}

// NewFromTrainingSet computes the per-dimension mean, the sample
// covariance matrix, and inverts it. On a singular covariance matrix it
// falls back to inverting only the diagonal (spec.md §4.7 construction
// path ii), returning ok=false to let the caller know the fallback was
// taken.
func NewFromTrainingSet[T traits.Element, DS DataSetLike[T]](train DS) (metric *Mahalanobis[T], ok bool) {
	dim := train.Dim()
	n := train.Size()

	mean := make([]T, dim)
	for a := 0; a < dim; a++ {
		var sum T
		for v := range train.Column(a) {
			sum += v
		}
		mean[a] = sum / T(n)
	}

	cov := matrix.NewZero[T](dim)
	denom := T(n - 1)
	if n <= 1 {
		denom = T(1)
	}
	for i := 0; i < n; i++ {
		v := train.GetPermuted(uint32(i))
		for r := 0; r < dim; r++ {
			dr := v[r] - mean[r]
			for c := 0; c <= r; c++ {
				dc := v[c] - mean[c]
				cov.Set(r, c, cov.At(r, c)+dr*dc)
			}
		}
	}
	for r := 0; r < dim; r++ {
		for c := 0; c <= r; c++ {
			cov.Set(r, c, cov.At(r, c)/denom)
		}
	}

	if err := cov.Invert(); err != nil {
		diag := matrix.NewZero[T](dim)
		for i := 0; i < dim; i++ {
			v := cov.At(i, i)
			if v == traits.Zero[T]() {
				v = traits.One[T]()
			}
			diag.Set(i, i, traits.One[T]()/v)
		}
		return &Mahalanobis[T]{inv: diag, isDiagonal: true}, false
	}

	return &Mahalanobis[T]{inv: cov, isDiagonal: cov.IsDiagonal()}, true
}

// InverseCovariance returns the metric's stored inverse covariance matrix.
func (m *Mahalanobis[T]) InverseCovariance() *matrix.Symmetric[T] {
	return m.inv
}

// IsDiagonal reports whether the inverse covariance matrix is diagonal,
// enabling the upper-bounded early-exit fast path.
func (m *Mahalanobis[T]) IsDiagonal() bool {
	return m.isDiagonal
}

// SquaredDistance returns the full quadratic form (a-b)^T Sigma^-1 (a-b).
func (m *Mahalanobis[T]) SquaredDistance(a, b []T) T {
	dim := len(a)
	diff := make([]T, dim)
	for i := range diff {
		diff[i] = a[i] - b[i]
	}

	var sum T
	for r := 0; r < dim; r++ {
		var rowSum T
		for c := 0; c < dim; c++ {
			rowSum += m.inv.At(r, c) * diff[c]
		}
		sum += diff[r] * rowSum
	}
	return sum
}

// SquaredDistanceBounded returns the squared Mahalanobis distance with an
// early-exit upper bound, available only when the inverse covariance is
// diagonal (the partial sum is not monotone for a full quadratic form,
// per spec.md §4.7). When diagonal, this reduces to a per-axis weighted
// Euclidean computation and reuses the same early-exit block structure.
// When not diagonal, it evaluates the full quadratic form with no early
// exit.
func (m *Mahalanobis[T]) SquaredDistanceBounded(a, b []T, upper T) T {
	if !m.isDiagonal {
		return m.SquaredDistance(a, b)
	}

	d := len(a)
	prefix := earlyExitPrefix(d)

	var sum T
	i := 0
	for ; i < prefix && i < d; i++ {
		diff := a[i] - b[i]
		sum += m.inv.At(i, i) * diff * diff
	}
	for i < d {
		block := i + 4
		if block > d {
			block = d
		}
		for ; i < block; i++ {
			diff := a[i] - b[i]
			sum += m.inv.At(i, i) * diff * diff
		}
		if i < d && sum > upper {
			return sum
		}
	}
	return sum
}
