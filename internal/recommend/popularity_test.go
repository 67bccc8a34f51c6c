package recommend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinematch/cinematch/pkg/models"
)

func TestWeightedRatingShrinkage(t *testing.T) {
	movies := []models.Movie{
		{ID: 1, Title: "Heavy", VoteAverage: 8.0, VoteCount: 5000},
		{ID: 2, Title: "Light", VoteAverage: 8.0, VoteCount: 10},
		{ID: 3, Title: "Perfect But Tiny", VoteAverage: 10.0, VoteCount: 2},
		{ID: 4, Title: "Solid", VoteAverage: 7.5, VoteCount: 800},
	}
	s := NewPopularityScorer(movies)

	// Equal vote averages: more votes means strictly less shrinkage toward
	// the mean, so the score sits strictly closer to the movie's own rating.
	distHeavy := math.Abs(s.Score(0) - 8.0)
	distLight := math.Abs(s.Score(1) - 8.0)
	assert.Less(t, distHeavy, distLight)

	// Two perfect votes must not outrank thousands of good ones.
	assert.Greater(t, s.Score(0), s.Score(2))
}

func TestNormalizedScoresInUnitRange(t *testing.T) {
	movies := []models.Movie{
		{ID: 1, VoteAverage: 9.0, VoteCount: 1000},
		{ID: 2, VoteAverage: 5.0, VoteCount: 5},
		{ID: 3, VoteAverage: 7.0, VoteCount: 500},
	}
	s := NewPopularityScorer(movies)

	var lo, hi = math.Inf(1), math.Inf(-1)
	for i := 0; i < s.Len(); i++ {
		n := s.Normalized(i)
		assert.GreaterOrEqual(t, n, 0.0)
		assert.LessOrEqual(t, n, 1.0)
		lo = math.Min(lo, n)
		hi = math.Max(hi, n)
	}
	assert.Zero(t, lo)
	assert.Equal(t, 1.0, hi)
}

func TestScorerRecomputedPerDataset(t *testing.T) {
	small := NewPopularityScorer([]models.Movie{
		{ID: 1, VoteAverage: 4.0, VoteCount: 10},
		{ID: 2, VoteAverage: 6.0, VoteCount: 20},
	})
	large := NewPopularityScorer([]models.Movie{
		{ID: 1, VoteAverage: 4.0, VoteCount: 10},
		{ID: 2, VoteAverage: 6.0, VoteCount: 20},
		{ID: 3, VoteAverage: 9.0, VoteCount: 9000},
	})

	// The shrinkage prior and mean follow the dataset.
	assert.NotEqual(t, small.Score(0), large.Score(0))
}

func TestScorerEmptyDataset(t *testing.T) {
	s := NewPopularityScorer(nil)
	require.Zero(t, s.Len())
}

func TestQuantileInterpolation(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 3.4, quantile(values, 0.6), 1e-9)
	assert.InDelta(t, 1.0, quantile(values, 0), 1e-9)
	assert.InDelta(t, 5.0, quantile(values, 1), 1e-9)
	assert.Zero(t, quantile(nil, 0.6))
}
