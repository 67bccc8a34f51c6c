package similarity

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinematch/cinematch/pkg/errors"
	"github.com/cinematch/cinematch/pkg/logger"
	"github.com/cinematch/cinematch/pkg/models"
)

var testCorpus = map[models.FeatureSpace][]string{
	models.SpaceTags:       {"space alien futur", "space alien futur", "romanc love heart"},
	models.SpaceGenres:     {"sciencefiction", "sciencefiction", "romance"},
	models.SpaceKeywords:   {"", "", ""},
	models.SpaceCast:       {"adastar", "bennova", "adastar"},
	models.SpaceProduction: {"orbitpictures", "", ""},
}

func testProvider(calls *atomic.Int32) CorpusProvider {
	return func(space models.FeatureSpace) []string {
		if calls != nil {
			calls.Add(1)
		}
		return testCorpus[space]
	}
}

func newTestStore(t *testing.T, dir string, calls *atomic.Int32) *Store {
	t.Helper()
	return NewStore(StoreOptions{Dir: dir, MaxVocab: 100}, 3, "fp-1", testProvider(calls), logger.NewNoop())
}

func TestMatrixLazyBuild(t *testing.T) {
	s := newTestStore(t, "", nil)

	m, err := s.Matrix(context.Background(), models.SpaceTags)
	require.NoError(t, err)
	require.Equal(t, 3, m.Size)
	assert.InDelta(t, 1.0, m.At(0, 1), 1e-9)
	assert.InDelta(t, 0.0, m.At(0, 2), 1e-9)
}

func TestMatrixUnknownSpace(t *testing.T) {
	s := newTestStore(t, "", nil)

	_, err := s.Matrix(context.Background(), "posters")
	require.Error(t, err)
	assert.True(t, errors.IsUnavailableFeature(err))
	assert.ElementsMatch(t,
		[]string{"tags", "genres", "keywords", "cast", "production"},
		errors.AvailableSpaces(err))
}

func TestMatrixEmptySpaceYieldsZeroMatrix(t *testing.T) {
	s := newTestStore(t, "", nil)

	m, err := s.Matrix(context.Background(), models.SpaceKeywords)
	require.NoError(t, err)
	for _, v := range m.Data {
		assert.Zero(t, v)
	}
}

func TestMatrixBuiltAtMostOnce(t *testing.T) {
	var calls atomic.Int32
	s := newTestStore(t, "", &calls)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := s.Matrix(context.Background(), models.SpaceTags)
			assert.NoError(t, err)
			assert.NotNil(t, m)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestPersistAndReload(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	first := newTestStore(t, dir, &calls)
	_, err := first.Matrix(context.Background(), models.SpaceTags)
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())

	// A fresh store for the same snapshot loads the blob, not the corpus.
	second := newTestStore(t, dir, &calls)
	m, err := second.Matrix(context.Background(), models.SpaceTags)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.InDelta(t, 1.0, m.At(0, 1), 1e-9)
}

func TestStaleBlobTriggersRebuild(t *testing.T) {
	dir := t.TempDir()

	// Persist a 3x3 blob for an older snapshot, then open the store against
	// a 4-row dataset: the blob must be discarded and rebuilt, not indexed.
	stale := Build([]string{"a", "b", "c"}, 100, nil, "fp-old")
	var buf bytes.Buffer
	require.NoError(t, stale.Encode(&buf))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "similarity_tags.gob"), buf.Bytes(), 0o644))

	bigger := map[models.FeatureSpace][]string{
		models.SpaceTags: {"a", "b", "c", "d"},
	}
	s := NewStore(StoreOptions{Dir: dir, MaxVocab: 100}, 4, "fp-new",
		func(space models.FeatureSpace) []string { return bigger[space] },
		logger.NewNoop())

	m, err := s.Matrix(context.Background(), models.SpaceTags)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Size)
	assert.Equal(t, "fp-new", m.Fingerprint)
}

func TestValidateDimensionMismatch(t *testing.T) {
	m := Build([]string{"a", "b", "c"}, 100, nil, "fp-1")

	err := m.Validate(4, "fp-1")
	require.Error(t, err)
	assert.True(t, errors.IsDimensionMismatch(err))

	err = m.Validate(3, "fp-other")
	require.Error(t, err)
	assert.True(t, errors.IsDimensionMismatch(err))

	assert.NoError(t, m.Validate(3, "fp-1"))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := Build([]string{"space alien", "alien ship"}, 100, nil, "fp-1")

	var buf bytes.Buffer
	require.NoError(t, m.Encode(&buf))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}
