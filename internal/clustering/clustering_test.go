package clustering

import (
	"testing"

	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobs возвращает по perBlob точек вокруг каждого центра с небольшим детерминированным разбросом.
func blobs(centers [][]float64, perBlob int) [][]float64 {
	var pts [][]float64
	for _, c := range centers {
		for i := 0; i < perBlob; i++ {
			p := clone(c)
			p[0] += float64(i%2) * 0.05
			p[1] += float64(i/2) * 0.05
			pts = append(pts, p)
		}
	}

	return pts
}

func newTestSelector() *Selector {
	return NewSelector(NewKMeans(DefaultRestarts, DefaultMaxIter, DefaultSeed), DefaultMaxK, logger.NewNopLogger())
}

func TestKMeans_SeparatesBlobs(t *testing.T) {
	pts := blobs([][]float64{{0, 0}, {10, 10}, {-10, 10}}, 4)

	p, err := NewKMeans(DefaultRestarts, DefaultMaxIter, DefaultSeed).Partition(pts, 3)
	require.NoError(t, err)

	for b := 0; b < 3; b++ {
		label := p.Labels[b*4]
		for i := 1; i < 4; i++ {
			assert.Equal(t, label, p.Labels[b*4+i], "blob %d split", b)
		}
	}
	assert.Equal(t, 3, p.NonEmpty())
	assert.Less(t, p.Inertia, 0.1)
}

func TestKMeans_Deterministic(t *testing.T) {
	pts := blobs([][]float64{{0, 0}, {3, 1}, {1, 4}, {5, 5}}, 3)
	km := NewKMeans(DefaultRestarts, DefaultMaxIter, DefaultSeed)

	first, err := km.Partition(pts, 4)
	require.NoError(t, err)
	second, err := km.Partition(pts, 4)
	require.NoError(t, err)

	assert.Equal(t, first.Labels, second.Labels)
	assert.Equal(t, first.Centroids, second.Centroids)
}

func TestKMeans_PointsAreNearestToOwnCentroid(t *testing.T) {
	pts := [][]float64{{0, 0}, {1, 0}, {0.5, 2}, {4, 4}, {5, 3}, {9, 0}, {8, 1}, {2, 7}}

	p, err := NewKMeans(DefaultRestarts, DefaultMaxIter, DefaultSeed).Partition(pts, 3)
	require.NoError(t, err)

	for i, pt := range pts {
		own := sqDist(pt, p.Centroids[p.Labels[i]])
		for _, c := range p.Centroids {
			assert.LessOrEqual(t, own, sqDist(pt, c)+1e-12)
		}
	}
}

func TestKMeans_IdenticalPointsDoNotCrash(t *testing.T) {
	pts := [][]float64{{1, 1}, {1, 1}, {1, 1}}

	p, err := NewKMeans(MinRestarts, DefaultMaxIter, DefaultSeed).Partition(pts, 3)
	require.NoError(t, err)
	assert.Len(t, p.Labels, 3)
	assert.GreaterOrEqual(t, p.NonEmpty(), 1)
	assert.Zero(t, p.Inertia)
}

func TestKMeans_InvalidK(t *testing.T) {
	km := NewKMeans(DefaultRestarts, DefaultMaxIter, DefaultSeed)

	_, err := km.Partition([][]float64{{0}, {1}}, 3)
	assert.ErrorIs(t, err, e.ErrClusteringDegenerated)

	_, err = km.Partition(nil, 1)
	assert.ErrorIs(t, err, e.ErrEmptyVectors)

	_, err = km.Partition([][]float64{{0, 1}, {1}}, 1)
	assert.ErrorIs(t, err, e.ErrVectorSizeMismatch)
}

func TestSilhouette_KnownValues(t *testing.T) {
	pts := [][]float64{{0}, {1}, {10}, {11}}

	s, err := Silhouette(pts, []int{0, 0, 1, 1})
	require.NoError(t, err)
	assert.InDelta(t, (9.5/10.5+8.5/9.5)/2, s, 1e-12)
}

func TestSilhouette_SingletonScoresZero(t *testing.T) {
	pts := [][]float64{{0}, {1}, {10}}

	s, err := Silhouette(pts, []int{0, 0, 1})
	require.NoError(t, err)
	assert.InDelta(t, (0.9+8.0/9.0)/3, s, 1e-12)
}

func TestSilhouette_NeedsTwoGroups(t *testing.T) {
	_, err := Silhouette([][]float64{{0}, {1}}, []int{0, 0})
	assert.ErrorIs(t, err, e.ErrClusteringDegenerated)
}

func TestSelector_SmallBatches(t *testing.T) {
	s := newTestSelector()

	sel, err := s.Select([][]float64{{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, 1, sel.K)
	assert.Equal(t, []int{0}, sel.Partition.Labels)

	sel, err = s.Select([][]float64{{0, 0}, {5, 5}, {9, 1}})
	require.NoError(t, err)
	assert.Equal(t, 3, sel.K)
	assert.Equal(t, 3, sel.Partition.NonEmpty())

	_, err = s.Select(nil)
	assert.ErrorIs(t, err, e.ErrEmptyVectors)
}

func TestSelector_NearIdenticalTriple(t *testing.T) {
	sel, err := newTestSelector().Select([][]float64{{1, 1}, {1, 1}, {1, 1.000001}})
	require.NoError(t, err)
	assert.Equal(t, 3, sel.K)
	assert.NotEmpty(t, sel.Partition.Labels)
}

func TestSelector_FindsBlobCount(t *testing.T) {
	pts := blobs([][]float64{{0, 0}, {10, 10}, {-10, 10}}, 4)

	sel, err := newTestSelector().Select(pts)
	require.NoError(t, err)
	assert.Equal(t, 3, sel.K)
	assert.Equal(t, 3, sel.Partition.NonEmpty())
	assert.Greater(t, sel.Score, 0.9)
	assert.NotEmpty(t, sel.Candidates)
}

func TestSelector_NeverExceedsUpperBound(t *testing.T) {
	pts := [][]float64{{0, 0}, {4, 1}, {8, 3}, {1, 9}, {7, 7}}

	sel, err := newTestSelector().Select(pts)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sel.K, 1)
	assert.LessOrEqual(t, sel.K, 4)
	for _, c := range sel.Candidates {
		assert.LessOrEqual(t, c.K, 4)
		assert.Zero(t, c.Penalty, "no penalty for N <= 6")
	}
}

func TestSelector_PenalizesSingletonsAboveSixImages(t *testing.T) {
	pts := append(blobs([][]float64{{0, 0}, {10, 10}, {-10, 10}}, 3), []float64{50, -50})
	require.Len(t, pts, 10)

	km := NewKMeans(DefaultRestarts, DefaultMaxIter, DefaultSeed)
	sel, err := newTestSelector().Select(pts)
	require.NoError(t, err)
	require.NotEmpty(t, sel.Candidates)

	penalized := 0
	for _, c := range sel.Candidates {
		p, err := km.Partition(pts, c.K)
		require.NoError(t, err)

		if minPositive(p.Sizes()) < 2 {
			penalized++
			assert.Equal(t, DefaultPenalty, c.Penalty, "k=%d", c.K)
		} else {
			assert.Zero(t, c.Penalty, "k=%d", c.K)
		}
		assert.InDelta(t, c.Silhouette-c.Penalty, c.Score, 1e-12, "k=%d", c.K)
	}
	assert.Positive(t, penalized)

	assert.Equal(t, 4, sel.K)
	assert.Equal(t, 4, sel.Partition.NonEmpty())
	outlier := sel.Partition.Labels[9]
	for i := 0; i < 9; i++ {
		assert.NotEqual(t, outlier, sel.Partition.Labels[i])
	}
	for _, c := range sel.Candidates {
		if c.K == sel.K {
			assert.Equal(t, DefaultPenalty, c.Penalty)
			assert.InDelta(t, c.Silhouette-DefaultPenalty, sel.Score, 1e-12)
		}
	}
}

func TestSelector_NoPenaltyWithoutSingletons(t *testing.T) {
	pts := blobs([][]float64{{0, 0}, {10, 10}, {-10, 10}}, 4)

	sel, err := newTestSelector().Select(pts)
	require.NoError(t, err)
	require.Equal(t, 3, sel.K)
	assert.Equal(t, []int{4, 4, 4}, nonZero(sel.Partition.Sizes()))

	var found bool
	for _, c := range sel.Candidates {
		if c.K == 3 {
			found = true
			assert.Zero(t, c.Penalty)
			assert.InDelta(t, c.Silhouette, c.Score, 1e-12)
		}
	}
	assert.True(t, found)
}

func nonZero(sizes []int) []int {
	var out []int
	for _, s := range sizes {
		if s > 0 {
			out = append(out, s)
		}
	}

	return out
}

func TestSelector_DegenerateFallsBackToOneGroup(t *testing.T) {
	pts := make([][]float64, 7)
	for i := range pts {
		pts[i] = []float64{2, 2, 2}
	}

	sel, err := newTestSelector().Select(pts)
	require.NoError(t, err)
	assert.Equal(t, 1, sel.K)
	assert.Equal(t, 1, sel.Partition.NonEmpty())
	assert.Empty(t, sel.Candidates)
}

func TestSelector_Prefer(t *testing.T) {
	s := newTestSelector()

	tests := []struct {
		name      string
		k         int
		score     float64
		bestK     int
		bestScore float64
		want      bool
	}{
		{name: "first candidate beats initial", k: 2, score: 0.1, bestK: 2, bestScore: -1, want: true},
		{name: "strictly better", k: 3, score: 0.6, bestK: 2, bestScore: 0.5, want: true},
		{name: "larger k within tolerance", k: 4, score: 0.46, bestK: 3, bestScore: 0.5, want: true},
		{name: "larger k exactly at tolerance", k: 4, score: 0.45, bestK: 3, bestScore: 0.5, want: false},
		{name: "larger k below tolerance", k: 4, score: 0.40, bestK: 3, bestScore: 0.5, want: false},
		{name: "equal score same k", k: 3, score: 0.5, bestK: 3, bestScore: 0.5, want: false},
		{name: "better than negative best", k: 3, score: -0.46, bestK: 2, bestScore: -0.5, want: true},
		{name: "worse than negative best", k: 3, score: -0.6, bestK: 2, bestScore: -0.5, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.prefer(tt.k, tt.score, tt.bestK, tt.bestScore))
		})
	}
}

func TestPartition_Sizes(t *testing.T) {
	p := Partition{Labels: []int{0, 2, 2, 0, 2}, Centroids: make([][]float64, 3)}

	assert.Equal(t, []int{2, 0, 3}, p.Sizes())
	assert.Equal(t, 2, p.NonEmpty())
	assert.Equal(t, 2, minPositive(p.Sizes()))
}
