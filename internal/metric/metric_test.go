package metric

import (
	"math"
	"testing"

	"github.com/scigolib/kdindex/internal/dataset"
	"github.com/scigolib/kdindex/internal/matrix"
)

func TestEuclideanSquaredDistance(t *testing.T) {
	var e Euclidean[float64]
	a := []float64{0, 0, 0}
	b := []float64{1, 2, 2}
	if got, want := e.SquaredDistance(a, b), 9.0; got != want {
		t.Errorf("SquaredDistance(%v, %v) = %v, want %v", a, b, got, want)
	}
}

func TestEuclideanSquaredDistanceBoundedMatchesUnbounded(t *testing.T) {
	var e Euclidean[float64]
	a := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	b := []float64{8, 7, 6, 5, 4, 3, 2, 1}
	full := e.SquaredDistance(a, b)
	bounded := e.SquaredDistanceBounded(a, b, math.Inf(1))
	if bounded != full {
		t.Errorf("SquaredDistanceBounded with infinite upper = %v, want %v (matching unbounded)", bounded, full)
	}
}

func TestEuclideanSquaredDistanceBoundedEarlyExit(t *testing.T) {
	var e Euclidean[float64]
	a := make([]float64, 16)
	b := make([]float64, 16)
	for i := range a {
		b[i] = 10 // every dimension contributes 100 to the sum.
	}
	got := e.SquaredDistanceBounded(a, b, 50)
	if got <= 50 {
		t.Errorf("SquaredDistanceBounded(upper=50) = %v, want a value exceeding 50", got)
	}
}

func TestMahalanobisIdentityMatchesEuclidean(t *testing.T) {
	m := NewIdentity[float64](3)
	var e Euclidean[float64]
	a := []float64{1, 2, 3}
	b := []float64{4, 0, -1}
	if got, want := m.SquaredDistance(a, b), e.SquaredDistance(a, b); got != want {
		t.Errorf("identity-covariance Mahalanobis SquaredDistance = %v, want %v (Euclidean)", got, want)
	}
	if !m.IsDiagonal() {
		t.Error("identity covariance must report IsDiagonal() == true")
	}
}

func TestMahalanobisFromDiagonal(t *testing.T) {
	m := NewFromDiagonal[float64]([]float64{1, 4})
	a := []float64{0, 0}
	b := []float64{1, 1}
	// d^2 = 1*1^2 + 4*1^2 = 5
	if got, want := m.SquaredDistance(a, b), 5.0; got != want {
		t.Errorf("SquaredDistance = %v, want %v", got, want)
	}
	if !m.IsDiagonal() {
		t.Error("diagonal covariance must report IsDiagonal() == true")
	}
}

func TestMahalanobisFromInverseCovarianceNonDiagonal(t *testing.T) {
	inv := matrix.NewZero[float64](2)
	inv.Set(0, 0, 1)
	inv.Set(1, 1, 1)
	inv.Set(1, 0, 0.5)
	m := NewFromInverseCovariance(inv)
	if m.IsDiagonal() {
		t.Error("matrix with an off-diagonal entry must report IsDiagonal() == false")
	}
}

func TestMahalanobisBoundedFallsBackToFullWhenNotDiagonal(t *testing.T) {
	inv := matrix.NewZero[float64](2)
	inv.Set(0, 0, 1)
	inv.Set(1, 1, 1)
	inv.Set(1, 0, 0.5)
	m := NewFromInverseCovariance(inv)

	a := []float64{0, 0}
	b := []float64{2, 2}
	full := m.SquaredDistance(a, b)
	bounded := m.SquaredDistanceBounded(a, b, 0) // upper is irrelevant when not diagonal.
	if bounded != full {
		t.Errorf("SquaredDistanceBounded (non-diagonal) = %v, want %v (full quadratic form)", bounded, full)
	}
}

// fakeDataSet implements DataSetLike directly, without going through the
// dataset package, to pin down NewFromTrainingSet's mean/covariance math
// against a hand-computed small sample.
type fakeDataSet struct {
	dim     int
	vectors []dataset.Vector[float64]
}

func (f fakeDataSet) Size() int { return len(f.vectors) }
func (f fakeDataSet) Dim() int  { return f.dim }
func (f fakeDataSet) GetPermuted(i uint32) dataset.Vector[float64] {
	return f.vectors[i]
}
func (f fakeDataSet) Column(axis int) func(yield func(float64) bool) {
	return func(yield func(float64) bool) {
		for _, v := range f.vectors {
			if !yield(v[axis]) {
				return
			}
		}
	}
}

func TestMahalanobisFromTrainingSetDiagonalWhenUncorrelated(t *testing.T) {
	// A sample with equal variance (2/3) on each axis and zero covariance
	// between them inverts to a diagonal matrix (1.5 on the diagonal).
	train := fakeDataSet{
		dim: 2,
		vectors: []dataset.Vector[float64]{
			{1, 0}, {-1, 0}, {0, 1}, {0, -1},
		},
	}
	m, ok := NewFromTrainingSet[float64](train)
	if !ok {
		t.Fatal("NewFromTrainingSet reported !ok on a well-conditioned sample")
	}
	if !m.IsDiagonal() {
		t.Error("uncorrelated sample's inverse covariance should be diagonal")
	}
}

func TestMahalanobisFromTrainingSetSingularFallsBackToDiagonal(t *testing.T) {
	// All points identical: zero variance, singular covariance.
	train := fakeDataSet{
		dim: 2,
		vectors: []dataset.Vector[float64]{
			{5, 5}, {5, 5}, {5, 5},
		},
	}
	m, ok := NewFromTrainingSet[float64](train)
	if ok {
		t.Fatal("NewFromTrainingSet reported ok on a singular (zero-variance) sample")
	}
	if !m.IsDiagonal() {
		t.Error("the diagonal fallback must itself be diagonal")
	}
}
