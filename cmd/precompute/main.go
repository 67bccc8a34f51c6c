package main

import (
	"context"
	"os"
	"time"

	"github.com/cinematch/cinematch/internal/catalog"
	"github.com/cinematch/cinematch/internal/feature"
	"github.com/cinematch/cinematch/internal/similarity"
	"github.com/cinematch/cinematch/pkg/config"
	"github.com/cinematch/cinematch/pkg/interfaces"
	"github.com/cinematch/cinematch/pkg/logger"
	"github.com/cinematch/cinematch/pkg/models"
)

// precompute builds every similarity matrix and persists the blobs so a
// later server start can skip the expensive builds.
func main() {
	cfg, err := config.Load(os.Getenv("CINEMATCH_CONFIG"))
	if err != nil {
		panic(err)
	}

	log := logger.New()

	log.Info("Precomputing similarity matrices",
		interfaces.String("cache_dir", cfg.Similarity.CacheDir))

	start := time.Now()

	dataset, err := catalog.NewLoader(log).
		WithTopCast(cfg.Similarity.TopCast).
		Load(cfg.Dataset.MoviesPath, cfg.Dataset.CreditsPath)
	if err != nil {
		log.Fatal("Failed to load movie catalog", interfaces.Error(err))
	}

	log.Info("Movie catalog loaded", interfaces.Int("movies", dataset.Len()))

	corpus := feature.NewBuilder(log).Build(dataset)

	store := similarity.NewStore(
		similarity.StoreOptions{
			Dir:       cfg.Similarity.CacheDir,
			MaxVocab:  cfg.Similarity.MaxVocab,
			StopWords: feature.IsStopWord,
		},
		dataset.Len(), dataset.Fingerprint(),
		func(space models.FeatureSpace) []string { return corpus[space] },
		log,
	)

	if err := store.Warm(context.Background()); err != nil {
		log.Fatal("Failed to build similarity matrices", interfaces.Error(err))
	}

	log.Info("Similarity matrices built",
		interfaces.Int("spaces", len(models.AllFeatureSpaces())),
		interfaces.String("elapsed", time.Since(start).String()))
}
