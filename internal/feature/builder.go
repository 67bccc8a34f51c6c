// Package feature turns raw movie records into normalized text blobs, one
// per movie per feature space, ready for vectorization. Row order of every
// output slice matches the dataset row order; downstream similarity
// matrices depend on that alignment.
package feature

import (
	"strings"

	"github.com/cinematch/cinematch/internal/catalog"
	"github.com/cinematch/cinematch/pkg/interfaces"
	"github.com/cinematch/cinematch/pkg/models"
)

// Builder derives feature text blobs from a dataset.
type Builder struct {
	logger interfaces.Logger
}

// NewBuilder creates a feature builder.
func NewBuilder(logger interfaces.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build produces the text corpus for every feature space. Each returned
// slice has one entry per dataset row, in row order.
func (b *Builder) Build(ds *catalog.Dataset) map[models.FeatureSpace][]string {
	movies := ds.Movies()

	corpus := make(map[models.FeatureSpace][]string, 5)
	for _, space := range models.AllFeatureSpaces() {
		corpus[space] = make([]string, len(movies))
	}

	for i, m := range movies {
		corpus[models.SpaceTags][i] = b.tagsBlob(m)
		corpus[models.SpaceGenres][i] = joinLower(m.Genres)
		corpus[models.SpaceKeywords][i] = normalizeTokens(collapseNames(m.Keywords))
		corpus[models.SpaceCast][i] = joinLower(m.Cast)
		corpus[models.SpaceProduction][i] = joinLower(m.Companies)
	}

	b.logger.Info("Feature corpus built",
		interfaces.Int("movies", len(movies)),
		interfaces.Int("spaces", len(corpus)))

	return corpus
}

// tagsBlob concatenates overview, genre, keyword, cast and director tokens,
// then runs the full normalization pipeline over the pool.
func (b *Builder) tagsBlob(m models.Movie) string {
	tokens := strings.Fields(m.Overview)
	tokens = append(tokens, collapseNames(m.Genres)...)
	tokens = append(tokens, collapseNames(m.Keywords)...)
	tokens = append(tokens, collapseNames(m.Cast)...)
	if m.Director != "" {
		tokens = append(tokens, collapseNames([]string{m.Director})...)
	}
	return normalizeTokens(tokens)
}
