package recommend_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinematch/cinematch/internal/catalog"
	"github.com/cinematch/cinematch/internal/feature"
	"github.com/cinematch/cinematch/internal/recommend"
	"github.com/cinematch/cinematch/internal/similarity"
	"github.com/cinematch/cinematch/pkg/errors"
	"github.com/cinematch/cinematch/pkg/logger"
	"github.com/cinematch/cinematch/pkg/models"
)

func newEngine(t *testing.T, movies []models.Movie) *recommend.Engine {
	t.Helper()

	ds := catalog.NewDataset(movies)
	corpus := feature.NewBuilder(logger.NewNoop()).Build(ds)
	store := similarity.NewStore(
		similarity.StoreOptions{MaxVocab: 5000, StopWords: feature.IsStopWord},
		ds.Len(), ds.Fingerprint(),
		func(space models.FeatureSpace) []string { return corpus[space] },
		logger.NewNoop(),
	)
	scorer := recommend.NewPopularityScorer(ds.Movies())
	return recommend.NewEngine(ds, store, scorer, logger.NewNoop())
}

func toyMovies() []models.Movie {
	return []models.Movie{
		{
			ID: 1, Title: "A", Overview: "space alien future",
			Genres: []string{"Science Fiction"}, VoteAverage: 9.0, VoteCount: 1000,
		},
		{
			ID: 2, Title: "B", Overview: "space alien future",
			Genres: []string{"Science Fiction"}, VoteAverage: 5.0, VoteCount: 5,
		},
		{
			ID: 3, Title: "C", Overview: "romance love heart",
			Genres: []string{"Romance"}, VoteAverage: 7.0, VoteCount: 500,
		},
	}
}

func TestRecommendByFeatureToyScenario(t *testing.T) {
	e := newEngine(t, toyMovies())

	recs, err := e.RecommendByFeature(context.Background(), "A", models.SpaceTags, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// B shares every tag token with A; C shares none.
	assert.Equal(t, "B", recs[0].Title)
	assert.Equal(t, "C", recs[1].Title)
	assert.Greater(t, recs[0].Score, recs[1].Score)
	assert.Equal(t, models.SourceContent, recs[0].Source)
}

func TestRecommendByFeatureExcludesSelf(t *testing.T) {
	e := newEngine(t, toyMovies())

	recs, err := e.RecommendByFeature(context.Background(), "A", models.SpaceTags, 10)
	require.NoError(t, err)
	// At most len(dataset)-1 rows, never the query movie itself.
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.NotEqual(t, "A", rec.Title)
	}
}

func TestRecommendByFeatureResolution(t *testing.T) {
	e := newEngine(t, []models.Movie{
		{ID: 1, Title: "Star Voyage", Overview: "space"},
		{ID: 2, Title: "Star Voyage Returns", Overview: "space again"},
		{ID: 3, Title: "Quiet Fields", Overview: "drama"},
	})
	ctx := context.Background()

	// Exact case-insensitive match wins over substring candidates.
	recs, err := e.RecommendByFeature(ctx, "star voyage", models.SpaceTags, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	// Partial match surfaces candidates instead of a hard failure.
	_, err = e.RecommendByFeature(ctx, "Voyage Ret", models.SpaceTags, 1)
	require.Error(t, err)
	assert.True(t, errors.IsAmbiguousTitle(err))
	assert.Equal(t, []string{"Star Voyage Returns"}, errors.Candidates(err))

	// No match at all is not found, echoing the query.
	_, err = e.RecommendByFeature(ctx, "Missing", models.SpaceTags, 1)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "Missing")
}

func TestRecommendByFeatureUnknownSpace(t *testing.T) {
	e := newEngine(t, toyMovies())

	_, err := e.RecommendByFeature(context.Background(), "A", "posters", 2)
	require.Error(t, err)
	assert.True(t, errors.IsUnavailableFeature(err))
	assert.NotEmpty(t, errors.AvailableSpaces(err))
}

func TestRecommendByPopularityOrdering(t *testing.T) {
	e := newEngine(t, toyMovies())

	recs := e.RecommendByPopularity(3)
	require.Len(t, recs, 3)
	assert.Equal(t, "A", recs[0].Title) // high rating, many votes

	// Degrades to the dataset size, never errors.
	assert.Len(t, e.RecommendByPopularity(50), 3)
}

func TestRecommendHybridBlends(t *testing.T) {
	e := newEngine(t, toyMovies())

	recs, err := e.RecommendHybrid(context.Background(), "A", 2, nil)
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	// B leads: full content similarity plus full genre similarity beat
	// anything popularity alone contributes.
	assert.Equal(t, "B", recs[0].Title)
	assert.Equal(t, models.SourceHybrid, recs[0].Source)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Score, recs[i].Score)
	}
}

func TestRecommendHybridNormalizesWeights(t *testing.T) {
	e := newEngine(t, toyMovies())

	// Weights not summing to 1 are normalized, not rejected.
	recs, err := e.RecommendHybrid(context.Background(), "A", 2, &recommend.HybridWeights{
		Content: 5, Genre: 3, Popularity: 2,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, recs)

	_, err = e.RecommendHybrid(context.Background(), "A", 2, &recommend.HybridWeights{})
	require.Error(t, err)
	assert.True(t, errors.IsBadRequest(err))
}

func TestRecommendHybridFallsBackToContent(t *testing.T) {
	e := newEngine(t, toyMovies())

	// An unresolvable base movie fails content-based fallback the same way,
	// so the typed resolution error propagates.
	_, err := e.RecommendHybrid(context.Background(), "Missing", 2, nil)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestByGenreFallback(t *testing.T) {
	e := newEngine(t, toyMovies())

	recs := e.ByGenreFallback([]string{"Romance"}, 2)
	require.NotEmpty(t, recs)
	assert.Equal(t, "C", recs[0].Title)

	// An unmatched genre degrades to the global top-rated list of exactly
	// the requested size, never an empty result.
	recs = e.ByGenreFallback([]string{"NonexistentGenreXYZ"}, 3)
	require.Len(t, recs, 3)
	assert.Equal(t, "A", recs[0].Title)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].VoteAverage, recs[i].VoteAverage)
	}
}

func TestByGenreFallbackTieBreaks(t *testing.T) {
	e := newEngine(t, []models.Movie{
		{ID: 1, Title: "FewVotes", Genres: []string{"Action"}, Overview: "x", VoteAverage: 8.0, VoteCount: 10},
		{ID: 2, Title: "ManyVotes", Genres: []string{"Action"}, Overview: "y", VoteAverage: 8.0, VoteCount: 900},
	})

	recs := e.ByGenreFallback([]string{"action"}, 2)
	require.Len(t, recs, 2)
	assert.Equal(t, "ManyVotes", recs[0].Title)
}

func TestMovieByTitle(t *testing.T) {
	e := newEngine(t, toyMovies())

	m, err := e.MovieByTitle("b")
	require.NoError(t, err)
	assert.Equal(t, 2, m.ID)

	_, err = e.MovieByTitle("nope")
	assert.True(t, errors.IsNotFound(err))
}
