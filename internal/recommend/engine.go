// Package recommend implements the nearest-neighbor retrieval and ranking
// logic on top of the similarity store: per-feature-space recommendations,
// popularity ranking and the hybrid blend of both.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cinematch/cinematch/internal/catalog"
	"github.com/cinematch/cinematch/internal/similarity"
	"github.com/cinematch/cinematch/pkg/errors"
	"github.com/cinematch/cinematch/pkg/interfaces"
	"github.com/cinematch/cinematch/pkg/models"
)

// maxTitleCandidates bounds the disambiguation list for partial matches.
const maxTitleCandidates = 5

// HybridWeights weights the three sources blended by RecommendHybrid. Any
// combination summing to a positive total is accepted and normalized.
type HybridWeights struct {
	Content    float64 `json:"content"`
	Genre      float64 `json:"genre"`
	Popularity float64 `json:"popularity"`
}

// DefaultHybridWeights returns the standard blend.
func DefaultHybridWeights() HybridWeights {
	return HybridWeights{Content: 0.5, Genre: 0.3, Popularity: 0.2}
}

func (w HybridWeights) normalize() (HybridWeights, error) {
	total := w.Content + w.Genre + w.Popularity
	if total <= 0 {
		return w, errors.BadRequest("hybrid weights must sum to a positive total")
	}
	return HybridWeights{
		Content:    w.Content / total,
		Genre:      w.Genre / total,
		Popularity: w.Popularity / total,
	}, nil
}

// Engine serves ranked movie lists. It reads the similarity store and the
// popularity scorer; it never mutates either.
type Engine struct {
	ds     *catalog.Dataset
	store  *similarity.Store
	scorer *PopularityScorer
	logger interfaces.Logger
}

// NewEngine creates a recommendation engine over one dataset snapshot.
func NewEngine(ds *catalog.Dataset, store *similarity.Store, scorer *PopularityScorer, logger interfaces.Logger) *Engine {
	return &Engine{
		ds:     ds,
		store:  store,
		scorer: scorer,
		logger: logger,
	}
}

// ResolveTitle resolves a title query to a dataset row index. An exact
// case-insensitive match wins; otherwise up to five substring candidates are
// surfaced as a disambiguation result, and only a query matching nothing at
// all is a hard not-found.
func (e *Engine) ResolveTitle(title string) (int, error) {
	if strings.TrimSpace(title) == "" {
		return 0, errors.BadRequest("movie title is required")
	}
	if idx, ok := e.ds.IndexOfTitle(title); ok {
		return idx, nil
	}
	if candidates := e.ds.TitlesContaining(title, maxTitleCandidates); len(candidates) > 0 {
		return 0, errors.AmbiguousTitle(fmt.Sprintf("movie %q not found", title), candidates)
	}
	return 0, errors.NotFound(fmt.Sprintf("movie %q not found", title))
}

// RecommendByFeature returns the count movies most similar to the titled
// movie in one feature space, excluding the movie itself. Ordering is
// similarity descending with ties kept in dataset row order, so the result
// is deterministic for a given matrix.
func (e *Engine) RecommendByFeature(ctx context.Context, title string, space models.FeatureSpace, count int) ([]models.ScoredMovie, error) {
	if count <= 0 {
		return nil, errors.BadRequest("count must be positive")
	}

	idx, err := e.ResolveTitle(title)
	if err != nil {
		return nil, err
	}

	matrix, err := e.store.Matrix(ctx, space)
	if err != nil {
		return nil, err
	}
	if err := matrix.Validate(e.ds.Len(), e.ds.Fingerprint()); err != nil {
		return nil, err
	}

	row := matrix.Row(idx)
	order := make([]int, 0, len(row)-1)
	for i := range row {
		if i == idx {
			continue
		}
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return row[order[a]] > row[order[b]]
	})
	if len(order) > count {
		order = order[:count]
	}

	source := featureSource(space)
	recs := make([]models.ScoredMovie, 0, len(order))
	for _, i := range order {
		movie, err := e.ds.MovieAt(i)
		if err != nil {
			return nil, err
		}
		recs = append(recs, models.ScoredMovie{Movie: movie, Score: row[i], Source: source})
	}
	return recs, nil
}

// RecommendByPopularity returns the top count movies by weighted rating.
// Ties go to the higher vote count, then to dataset row order. It always
// succeeds, returning fewer rows only when the dataset is smaller.
func (e *Engine) RecommendByPopularity(count int) []models.ScoredMovie {
	if count <= 0 {
		return nil
	}

	movies := e.ds.Movies()
	order := make([]int, len(movies))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := e.scorer.Score(order[a]), e.scorer.Score(order[b])
		if sa != sb {
			return sa > sb
		}
		return movies[order[a]].VoteCount > movies[order[b]].VoteCount
	})
	if len(order) > count {
		order = order[:count]
	}

	recs := make([]models.ScoredMovie, 0, len(order))
	for _, i := range order {
		recs = append(recs, models.ScoredMovie{
			Movie:  movies[i],
			Score:  e.scorer.Normalized(i),
			Source: models.SourcePopularity,
		})
	}
	return recs
}

// RecommendHybrid blends content, genre and popularity sources into one
// ranked list using the supplied weights (nil for the default blend). On any
// internal failure it falls back to plain content-based recommendations for
// the same inputs instead of raising.
func (e *Engine) RecommendHybrid(ctx context.Context, title string, count int, weights *HybridWeights) ([]models.ScoredMovie, error) {
	if count <= 0 {
		return nil, errors.BadRequest("count must be positive")
	}

	w := DefaultHybridWeights()
	if weights != nil {
		w = *weights
	}
	w, err := w.normalize()
	if err != nil {
		return nil, err
	}

	recs, err := e.hybrid(ctx, title, count, w)
	if err != nil {
		e.logger.Warn("Hybrid recommendation failed, falling back to content-based",
			interfaces.String("title", title),
			interfaces.Error(err))
		return e.RecommendByFeature(ctx, title, models.SpaceTags, count)
	}
	return recs, nil
}

type hybridEntry struct {
	movie models.Movie
	row   int
	score float64
}

func (e *Engine) hybrid(ctx context.Context, title string, count int, w HybridWeights) ([]models.ScoredMovie, error) {
	// Over-fetch the feature sources so overlapping movies can accumulate
	// contributions from both.
	contentRecs, err := e.RecommendByFeature(ctx, title, models.SpaceTags, count*2)
	if err != nil {
		return nil, err
	}
	genreRecs, err := e.RecommendByFeature(ctx, title, models.SpaceGenres, count*2)
	if err != nil {
		return nil, err
	}
	popularRecs := e.RecommendByPopularity(count)

	combined := make(map[int]*hybridEntry)
	accumulate := func(recs []models.ScoredMovie, weight float64) {
		for _, rec := range recs {
			entry, ok := combined[rec.ID]
			if !ok {
				row, _ := e.ds.IndexOfID(rec.ID)
				entry = &hybridEntry{movie: rec.Movie, row: row}
				combined[rec.ID] = entry
			}
			entry.score += rec.Score * weight
		}
	}
	accumulate(contentRecs, w.Content)
	accumulate(genreRecs, w.Genre)
	accumulate(popularRecs, w.Popularity)

	entries := make([]*hybridEntry, 0, len(combined))
	for _, entry := range combined {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].score != entries[b].score {
			return entries[a].score > entries[b].score
		}
		return entries[a].row < entries[b].row
	})
	if len(entries) > count {
		entries = entries[:count]
	}

	recs := make([]models.ScoredMovie, 0, len(entries))
	for _, entry := range entries {
		recs = append(recs, models.ScoredMovie{Movie: entry.movie, Score: entry.score, Source: models.SourceHybrid})
	}
	return recs, nil
}

// ByGenreFallback returns the top count movies whose genres contain any of
// the requested names as a case-insensitive substring, ranked by vote
// average then vote count. When the filter matches nothing it degrades to
// the global top-rated list; callers never get an empty result for a merely
// unmatched genre.
func (e *Engine) ByGenreFallback(genres []string, count int) []models.ScoredMovie {
	if count <= 0 {
		return nil
	}

	patterns := make([]string, 0, len(genres))
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g != "" {
			patterns = append(patterns, g)
		}
	}

	movies := e.ds.Movies()
	var matched []int
	if len(patterns) > 0 {
		for i, m := range movies {
			haystack := strings.ToLower(strings.Join(m.Genres, "|"))
			for _, p := range patterns {
				if strings.Contains(haystack, p) {
					matched = append(matched, i)
					break
				}
			}
		}
	}
	if len(matched) == 0 {
		matched = make([]int, len(movies))
		for i := range matched {
			matched[i] = i
		}
	}

	sort.SliceStable(matched, func(a, b int) bool {
		ma, mb := movies[matched[a]], movies[matched[b]]
		if ma.VoteAverage != mb.VoteAverage {
			return ma.VoteAverage > mb.VoteAverage
		}
		return ma.VoteCount > mb.VoteCount
	})
	if len(matched) > count {
		matched = matched[:count]
	}

	recs := make([]models.ScoredMovie, 0, len(matched))
	for _, i := range matched {
		recs = append(recs, models.ScoredMovie{
			Movie:  movies[i],
			Score:  movies[i].VoteAverage,
			Source: models.SourceGenre,
		})
	}
	return recs
}

// AvailableSpaces lists the feature spaces that currently have a built
// matrix.
func (e *Engine) AvailableSpaces() []string {
	return e.store.Available()
}

// MovieByTitle returns the full record for a resolved title.
func (e *Engine) MovieByTitle(title string) (models.Movie, error) {
	idx, err := e.ResolveTitle(title)
	if err != nil {
		return models.Movie{}, err
	}
	return e.ds.MovieAt(idx)
}

func featureSource(space models.FeatureSpace) string {
	switch space {
	case models.SpaceTags:
		return models.SourceContent
	case models.SpaceGenres:
		return models.SourceGenre
	default:
		return string(space) + "_based"
	}
}
