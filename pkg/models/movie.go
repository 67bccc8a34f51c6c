package models

import "time"

// FeatureSpace identifies one independent text representation of a movie
// used to build a similarity matrix.
type FeatureSpace string

const (
	SpaceTags       FeatureSpace = "tags"
	SpaceGenres     FeatureSpace = "genres"
	SpaceKeywords   FeatureSpace = "keywords"
	SpaceCast       FeatureSpace = "cast"
	SpaceProduction FeatureSpace = "production"
)

// AllFeatureSpaces lists every feature space a similarity matrix is built for.
func AllFeatureSpaces() []FeatureSpace {
	return []FeatureSpace{SpaceTags, SpaceGenres, SpaceKeywords, SpaceCast, SpaceProduction}
}

// Movie represents one movie from the catalog. The ID is the TMDB movie id
// and is stable across rebuilds; titles are not unique.
type Movie struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Overview    string     `json:"overview,omitempty"`
	Genres      []string   `json:"genres,omitempty"`
	Keywords    []string   `json:"keywords,omitempty"`
	Cast        []string   `json:"cast,omitempty"` // top-billed, bounded at load time
	Director    string     `json:"director,omitempty"`
	Companies   []string   `json:"production_companies,omitempty"`
	VoteAverage float64    `json:"vote_average"`
	VoteCount   int        `json:"vote_count"`
	Popularity  float64    `json:"popularity"`
	Budget      int64      `json:"budget,omitempty"`
	Revenue     int64      `json:"revenue,omitempty"`
	Runtime     int        `json:"runtime,omitempty"` // minutes
	ReleaseDate *time.Time `json:"release_date,omitempty"`
}

// ScoredMovie is a movie annotated with the score that ranked it and the
// recommendation source that produced the score.
type ScoredMovie struct {
	Movie
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// Recommendation sources.
const (
	SourceContent    = "content_based"
	SourceGenre      = "genre_based"
	SourcePopularity = "popularity_based"
	SourceHybrid     = "hybrid"
)
