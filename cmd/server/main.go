package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinematch/cinematch/internal/catalog"
	"github.com/cinematch/cinematch/internal/chat"
	"github.com/cinematch/cinematch/internal/feature"
	"github.com/cinematch/cinematch/internal/preferences/repository"
	"github.com/cinematch/cinematch/internal/preferences/service"
	"github.com/cinematch/cinematch/internal/recommend"
	"github.com/cinematch/cinematch/internal/server"
	"github.com/cinematch/cinematch/internal/similarity"
	"github.com/cinematch/cinematch/internal/tmdb"
	"github.com/cinematch/cinematch/pkg/config"
	"github.com/cinematch/cinematch/pkg/database"
	"github.com/cinematch/cinematch/pkg/events"
	"github.com/cinematch/cinematch/pkg/interfaces"
	"github.com/cinematch/cinematch/pkg/logger"
	"github.com/cinematch/cinematch/pkg/models"
	"github.com/cinematch/cinematch/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("CINEMATCH_CONFIG"))
	if err != nil {
		panic(err)
	}

	// Initialize logger
	log := logger.New()

	log.Info("Recommendation service starting",
		interfaces.String("name", cfg.Service.Name),
		interfaces.String("environment", cfg.Service.Environment))

	// Load the movie catalog
	log.Info("Loading movie catalog...",
		interfaces.String("movies", cfg.Dataset.MoviesPath),
		interfaces.String("credits", cfg.Dataset.CreditsPath))

	dataset, err := catalog.NewLoader(log).
		WithTopCast(cfg.Similarity.TopCast).
		Load(cfg.Dataset.MoviesPath, cfg.Dataset.CreditsPath)
	if err != nil {
		log.Fatal("Failed to load movie catalog", interfaces.Error(err))
	}

	log.Info("Movie catalog loaded", interfaces.Int("movies", dataset.Len()))

	// Build feature corpora and the similarity store
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

	// Matrices build lazily on first use; warming them in the background
	// keeps the first requests fast.
	go func() {
		if err := store.Warm(context.Background()); err != nil {
			log.Warn("Similarity warmup failed", interfaces.Error(err))
		}
	}()

	scorer := recommend.NewPopularityScorer(dataset.Movies())
	engine := recommend.NewEngine(dataset, store, scorer, log)

	// Open the preference store
	db, err := database.NewGormDB(database.DefaultSQLiteConfig(cfg.Database.Path))
	if err != nil {
		log.Fatal("Failed to open preference store", interfaces.Error(err))
	}

	repo := repository.NewGormRepository(db)
	if err := repo.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", interfaces.Error(err))
	}

	eventBus := events.NewInMemoryEventBus(log)

	prefs := service.NewPreferencesService(repo, eventBus, log)
	responder := chat.NewResponder(engine, log)
	images := tmdb.NewClient(cfg.TMDB, utils.NewInMemoryCache(), log)

	if !images.Enabled() {
		log.Warn("No TMDB API key configured; serving placeholder artwork")
	}

	srv := server.New(dataset, engine, prefs, responder, images, log)
	srv.SetDefaultWeights(recommend.HybridWeights{
		Content:    cfg.Hybrid.Content,
		Genre:      cfg.Hybrid.Genre,
		Popularity: cfg.Hybrid.Popularity,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.ListenAddress())
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("HTTP server failed", interfaces.Error(err))
		}
	case sig := <-sigCh:
		log.Info("Shutting down", interfaces.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Shutdown failed", interfaces.Error(err))
	}

	if err := eventBus.Stop(); err != nil {
		log.Error("Event bus stop failed", interfaces.Error(err))
	}

	log.Info("Recommendation service stopped")
}
