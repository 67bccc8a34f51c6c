package feature

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinematch/cinematch/internal/catalog"
	"github.com/cinematch/cinematch/pkg/logger"
	"github.com/cinematch/cinematch/pkg/models"
)

func TestNormalizeTokens(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   string
	}{
		{
			name:   "lowercases and stems",
			tokens: []string{"Running", "Explosions"},
			want:   "run explos",
		},
		{
			name:   "drops stop words",
			tokens: []string{"the", "alien", "and", "future"},
			want:   "alien futur",
		},
		{
			name:   "drops short tokens",
			tokens: []string{"go", "at", "spaceship"},
			want:   "spaceship",
		},
		{
			name:   "strips surrounding punctuation",
			tokens: []string{"stars,", "(galaxy)"},
			want:   "star galaxi",
		},
		{
			name:   "empty input",
			tokens: nil,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeTokens(tt.tokens))
		})
	}
}

func TestCollapseNames(t *testing.T) {
	assert.Equal(t,
		[]string{"ScienceFiction", "TomHanks"},
		collapseNames([]string{"Science Fiction", "Tom Hanks"}))
	assert.Empty(t, collapseNames([]string{"", " "}))
}

func TestBuildAlignsWithDataset(t *testing.T) {
	ds := catalog.NewDataset([]models.Movie{
		{
			ID:        1,
			Title:     "Star Voyage",
			Overview:  "An alien future in deep space",
			Genres:    []string{"Science Fiction", "Action"},
			Keywords:  []string{"space war"},
			Cast:      []string{"Ada Star"},
			Director:  "Dee Helm",
			Companies: []string{"Orbit Pictures"},
		},
		{
			ID:       2,
			Title:    "Quiet Fields",
			Overview: "A quiet family drama",
			Genres:   []string{"Drama"},
		},
	})

	corpus := NewBuilder(logger.NewNoop()).Build(ds)

	require.Len(t, corpus, 5)
	for space, rows := range corpus {
		assert.Len(t, rows, ds.Len(), "space %s must align with dataset rows", space)
	}

	tags := corpus[models.SpaceTags][0]
	assert.Contains(t, tags, "alien")
	assert.Contains(t, tags, "sciencefict") // collapsed then stemmed
	assert.Contains(t, tags, "adastar")
	assert.Contains(t, tags, "deehelm")
	assert.NotContains(t, strings.Fields(tags), "an")
	assert.NotContains(t, strings.Fields(tags), "in")

	assert.Equal(t, "sciencefiction action", corpus[models.SpaceGenres][0])
	assert.Equal(t, "adastar", corpus[models.SpaceCast][0])
	assert.Equal(t, "orbitpictures", corpus[models.SpaceProduction][0])

	// Missing fields degrade to empty blobs, never missing rows.
	assert.Equal(t, "", corpus[models.SpaceCast][1])
	assert.Equal(t, "", corpus[models.SpaceProduction][1])
}

func TestBuildDeterministic(t *testing.T) {
	ds := catalog.NewDataset([]models.Movie{
		{ID: 1, Title: "A", Overview: "space alien future", Genres: []string{"Science Fiction"}},
		{ID: 2, Title: "B", Overview: "romance love heart", Genres: []string{"Romance"}},
	})

	b := NewBuilder(logger.NewNoop())
	assert.Equal(t, b.Build(ds), b.Build(ds))
}
