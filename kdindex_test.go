package kdindex_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/scigolib/kdindex"
	"github.com/stretchr/testify/require"
)

func vec(xs ...float64) kdindex.Vector[float64] { return kdindex.Vector[float64](xs) }

// tinyTrainingSet is the five-point set used throughout these tests:
// (0,0), (1,0), (0,1), (1,1), (2,2).
func tinyTrainingSet() []kdindex.Vector[float64] {
	return []kdindex.Vector[float64]{
		vec(0, 0), vec(1, 0), vec(0, 1), vec(1, 1), vec(2, 2),
	}
}

// TestKnnTinyDeterministic exercises a 2-D, bucket-size-1 tree where the
// nearest neighbour and its runner-up are known by hand.
func TestKnnTinyDeterministic(t *testing.T) {
	tree, err := kdindex.Build(tinyTrainingSet(), 1)
	require.NoError(t, err)

	got := tree.Knn(vec(0.9, 0.1), 2, kdindex.NewEuclideanMetric[float64]())
	require.Len(t, got, 2)

	require.Equal(t, uint32(1), got[0].Index)
	require.InDelta(t, 0.02, got[0].SquaredDistance, 1e-9)

	// The runner-up is tied between index 0 and index 3, both at
	// distance 0.82; which one wins is an admission-order detail this
	// test does not pin down.
	require.Contains(t, []uint32{0, 3}, got[1].Index)
	require.InDelta(t, 0.82, got[1].SquaredDistance, 1e-9)
}

// TestAllInRange checks every point within radius 1.5 of the origin.
// The radius is squared internally (spec's formal distance bound is
// d^2(q,x) <= r^2, grounded in the original kd-tree's all_in_range,
// which sets farthest_distance = distance*distance), so index 3 at
// exactly d^2 = 2 qualifies against r^2 = 2.25.
func TestAllInRange(t *testing.T) {
	tree, err := kdindex.Build(tinyTrainingSet(), 1)
	require.NoError(t, err)

	got := tree.AllInRange(vec(0, 0), 1.5, kdindex.NewEuclideanMetric[float64](), false)

	byIndex := make(map[uint32]float64, len(got))
	for _, n := range got {
		byIndex[n.Index] = n.SquaredDistance
	}
	require.Equal(t, map[uint32]float64{0: 0, 1: 1, 2: 1, 3: 2}, byIndex)
}

func TestAllInRangeEmptyForZeroRadius(t *testing.T) {
	tree, err := kdindex.Build(tinyTrainingSet(), 1)
	require.NoError(t, err)
	require.Empty(t, tree.AllInRange(vec(0, 0), 0, kdindex.NewEuclideanMetric[float64](), false))
}

// TestKnnIgnoreSelf queries with the training set's own point 3, and
// expects the zero-distance match to be excluded.
func TestKnnIgnoreSelf(t *testing.T) {
	tree, err := kdindex.Build(tinyTrainingSet(), 1)
	require.NoError(t, err)

	got := tree.Knn(vec(1, 1), 1, kdindex.NewEuclideanMetric[float64](), kdindex.WithIgnoreSelf[float64]())
	require.Len(t, got, 1)
	require.NotEqual(t, uint32(3), got[0].Index)
	require.Greater(t, got[0].SquaredDistance, 0.0)
}

func TestKnnZeroKReturnsEmpty(t *testing.T) {
	tree, err := kdindex.Build(tinyTrainingSet(), 1)
	require.NoError(t, err)
	require.Nil(t, tree.Knn(vec(0, 0), 0, kdindex.NewEuclideanMetric[float64]()))
}

// TestSerializeRoundTrip builds a tree over a randomly generated 8-D
// data set, serialises it, deserialises it into a fresh tree, and
// checks that 100 identical queries return identical (index, distance)
// pairs on both.
func TestSerializeRoundTrip(t *testing.T) {
	const n, dim = 1000, 8
	rng := rand.New(rand.NewSource(42))

	vectors := make([]kdindex.Vector[float64], n)
	for i := range vectors {
		v := make(kdindex.Vector[float64], dim)
		for d := range v {
			v[d] = rng.Float64()*200 - 100
		}
		vectors[i] = v
	}

	original, err := kdindex.Build(vectors, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, original.Serialize(&buf))

	restored, err := kdindex.Deserialize[float64](&buf)
	require.NoError(t, err)
	require.NoError(t, restored.Verify())

	metric := kdindex.NewEuclideanMetric[float64]()
	for i := 0; i < 100; i++ {
		q := make(kdindex.Vector[float64], dim)
		for d := range q {
			q[d] = rng.Float64()*200 - 100
		}

		wantResults := original.Knn(q, 5, metric)
		gotResults := restored.Knn(q, 5, metric)
		require.Equal(t, wantResults, gotResults)
	}
}

func TestDeserializeRejectsBadSignature(t *testing.T) {
	tree, err := kdindex.Build(tinyTrainingSet(), 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tree.Serialize(&buf))
	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF

	_, err = kdindex.Deserialize[float64](bytes.NewReader(corrupted))
	require.ErrorIs(t, err, kdindex.ErrBadSignature)
}

// TestEpsilonSlack checks that approximate search never returns a
// distance worse than the true K-th distance plus epsilon squared.
func TestEpsilonSlack(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vectors := make([]kdindex.Vector[float64], 200)
	for i := range vectors {
		v := make(kdindex.Vector[float64], 4)
		for d := range v {
			v[d] = rng.Float64() * 10
		}
		vectors[i] = v
	}
	tree, err := kdindex.Build(vectors, 8)
	require.NoError(t, err)

	metric := kdindex.NewEuclideanMetric[float64]()
	q := vec(5, 5, 5, 5)
	const k = 5
	const epsilon = 0.5

	exact := tree.Knn(q, k, metric)
	require.Len(t, exact, k)
	trueKth := exact[k-1].SquaredDistance

	approx := tree.Knn(q, k, metric, kdindex.WithEpsilon[float64](epsilon))
	require.Len(t, approx, k)
	for _, n := range approx {
		require.LessOrEqual(t, n.SquaredDistance, trueKth+epsilon*epsilon)
	}
}

// TestMahalanobisIdentityMatchesEuclidean checks that an identity
// inverse-covariance Mahalanobis metric reproduces Euclidean knn exactly.
func TestMahalanobisIdentityMatchesEuclidean(t *testing.T) {
	tree, err := kdindex.Build(tinyTrainingSet(), 1)
	require.NoError(t, err)

	euclidean := tree.Knn(vec(0.9, 0.1), 3, kdindex.NewEuclideanMetric[float64]())
	mahalanobis := tree.Knn(vec(0.9, 0.1), 3, kdindex.NewMahalanobisIdentity[float64](2))
	require.Equal(t, euclidean, mahalanobis)
}

func TestBuildRejectsEmptyDataSet(t *testing.T) {
	_, err := kdindex.Build[float64](nil, 0)
	require.ErrorIs(t, err, kdindex.ErrEmptyDataSet)
}

func TestBuildRejectsNegativeBucketSize(t *testing.T) {
	_, err := kdindex.Build(tinyTrainingSet(), -1)
	require.ErrorIs(t, err, kdindex.ErrBadBucketSize)
}

func TestBuildDefaultsBucketSize(t *testing.T) {
	tree, err := kdindex.Build(tinyTrainingSet(), 0)
	require.NoError(t, err)
	require.Equal(t, kdindex.DefaultBucketSize, tree.BucketSize())
}

func TestVerifyPassesOnFreshlyBuiltTree(t *testing.T) {
	tree, err := kdindex.Build(tinyTrainingSet(), 1)
	require.NoError(t, err)
	require.NoError(t, tree.Verify())
}

func TestMetricsAccumulateAcrossQueries(t *testing.T) {
	tree, err := kdindex.Build(tinyTrainingSet(), 1)
	require.NoError(t, err)

	metric := kdindex.NewEuclideanMetric[float64]()
	tree.Knn(vec(0, 0), 2, metric)
	tree.Knn(vec(1, 1), 2, metric)
	tree.AllInRange(vec(0, 0), 1.5, metric, false)

	snap := tree.Metrics().Snapshot()
	require.EqualValues(t, 3, snap.Queries)
}
