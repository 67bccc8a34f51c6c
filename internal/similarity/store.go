// Package similarity builds, persists and serves the pairwise cosine
// similarity matrices the recommendation engine ranks against, one matrix
// per feature space.
package similarity

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/cinematch/cinematch/pkg/errors"
	"github.com/cinematch/cinematch/pkg/interfaces"
	"github.com/cinematch/cinematch/pkg/models"
)

// CorpusProvider supplies the text blob column for a feature space, aligned
// with the dataset row order the store was opened for.
type CorpusProvider func(space models.FeatureSpace) []string

// Store owns the similarity matrices for one dataset snapshot. Matrices are
// built lazily, at most once per feature space even under concurrent
// cold-start requests, and persisted keyed by (space, fingerprint) so a
// restart with unchanged data loads instead of rebuilding. Matrices are
// immutable; a rebuild swaps the map entry, never edits in place.
type Store struct {
	dir         string
	maxVocab    int
	size        int
	fingerprint string
	corpus      CorpusProvider
	stopWords   func(string) bool
	logger      interfaces.Logger

	group    singleflight.Group
	mu       sync.RWMutex
	matrices map[models.FeatureSpace]*Matrix
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// Dir is where matrix blobs persist. Empty disables persistence.
	Dir string
	// MaxVocab caps the vectorizer vocabulary.
	MaxVocab int
	// StopWords filters vectorizer tokens.
	StopWords func(string) bool
}

// NewStore creates a store for a dataset snapshot of the given size and
// fingerprint. The corpus provider is only invoked on cache misses.
func NewStore(opts StoreOptions, size int, fingerprint string, corpus CorpusProvider, logger interfaces.Logger) *Store {
	return &Store{
		dir:         opts.Dir,
		maxVocab:    opts.MaxVocab,
		size:        size,
		fingerprint: fingerprint,
		corpus:      corpus,
		stopWords:   opts.StopWords,
		logger:      logger,
		matrices:    make(map[models.FeatureSpace]*Matrix),
	}
}

// knownSpace reports whether the store serves this feature space at all.
func knownSpace(space models.FeatureSpace) bool {
	for _, s := range models.AllFeatureSpaces() {
		if s == space {
			return true
		}
	}
	return false
}

// Available returns the feature space names the store can serve.
func (s *Store) Available() []string {
	spaces := models.AllFeatureSpaces()
	names := make([]string, len(spaces))
	for i, sp := range spaces {
		names[i] = string(sp)
	}
	return names
}

// Matrix returns the similarity matrix for a feature space, building or
// loading it on first access. Construction runs to completion even if the
// requesting caller goes away: the result is shared, amortized work.
func (s *Store) Matrix(ctx context.Context, space models.FeatureSpace) (*Matrix, error) {
	if !knownSpace(space) {
		return nil, errors.UnavailableFeature(
			fmt.Sprintf("no similarity matrix for feature space %q", space), s.Available())
	}

	s.mu.RLock()
	m, ok := s.matrices[space]
	s.mu.RUnlock()
	if ok {
		return m, nil
	}

	// singleflight keyed on (space, fingerprint): concurrent cold starts
	// share one construction instead of duplicating the O(n^2) work.
	v, err, _ := s.group.Do(string(space)+"\x1f"+s.fingerprint, func() (interface{}, error) {
		return s.loadOrBuild(space)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Matrix), nil
}

// Warm builds or loads every feature space's matrix up front.
func (s *Store) Warm(ctx context.Context) error {
	for _, space := range models.AllFeatureSpaces() {
		if _, err := s.Matrix(ctx, space); err != nil {
			return fmt.Errorf("warming %s: %w", space, err)
		}
	}
	return nil
}

func (s *Store) loadOrBuild(space models.FeatureSpace) (*Matrix, error) {
	s.mu.RLock()
	if m, ok := s.matrices[space]; ok {
		s.mu.RUnlock()
		return m, nil
	}
	s.mu.RUnlock()

	m, err := s.loadPersisted(space)
	switch {
	case err == nil && m != nil:
		s.logger.Info("Loaded persisted similarity matrix",
			interfaces.String("space", string(space)),
			interfaces.Int("size", m.Size))
	case err != nil:
		// A stale or mismatched blob is a rebuild trigger, never something
		// to index into.
		s.logger.Warn("Discarding persisted similarity matrix",
			interfaces.String("space", string(space)),
			interfaces.Error(err))
		fallthrough
	default:
		m = Build(s.corpus(space), s.maxVocab, s.stopWords, s.fingerprint)
		s.logger.Info("Built similarity matrix",
			interfaces.String("space", string(space)),
			interfaces.Int("size", m.Size))
		if err := s.persist(space, m); err != nil {
			s.logger.Warn("Failed to persist similarity matrix",
				interfaces.String("space", string(space)),
				interfaces.Error(err))
		}
	}

	s.mu.Lock()
	s.matrices[space] = m
	s.mu.Unlock()
	return m, nil
}

// loadPersisted returns (nil, nil) when no blob exists, a validated matrix
// on success, and a DimensionMismatch error for a blob built from a
// different dataset snapshot.
func (s *Store) loadPersisted(space models.FeatureSpace) (*Matrix, error) {
	if s.dir == "" {
		return nil, nil
	}
	f, err := os.Open(s.blobPath(space))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(s.size, s.fingerprint); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Store) persist(space models.FeatureSpace, m *Matrix) error {
	if s.dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	// Write to a temp file and rename so readers never see a torn blob.
	tmp, err := os.CreateTemp(s.dir, "similarity-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := m.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.blobPath(space))
}

func (s *Store) blobPath(space models.FeatureSpace) string {
	return filepath.Join(s.dir, fmt.Sprintf("similarity_%s.gob", space))
}
