package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cinematch/cinematch/internal/catalog"
	"github.com/cinematch/cinematch/internal/chat"
	"github.com/cinematch/cinematch/internal/preferences/service"
	"github.com/cinematch/cinematch/internal/recommend"
	"github.com/cinematch/cinematch/internal/tmdb"
	"github.com/cinematch/cinematch/pkg/interfaces"
)

// Server exposes the recommendation engine, the chat responder, and the
// user preference store over HTTP.
type Server struct {
	dataset     *catalog.Dataset
	engine      *recommend.Engine
	preferences *service.PreferencesService
	responder   *chat.Responder
	images      *tmdb.Client
	logger      interfaces.Logger

	defaultWeights *recommend.HybridWeights

	httpServer *http.Server
}

// SetDefaultWeights overrides the hybrid blend used for anonymous
// requests.
func (s *Server) SetDefaultWeights(w recommend.HybridWeights) {
	s.defaultWeights = &w
}

// New creates a new HTTP server.
func New(
	dataset *catalog.Dataset,
	engine *recommend.Engine,
	preferences *service.PreferencesService,
	responder *chat.Responder,
	images *tmdb.Client,
	logger interfaces.Logger,
) *Server {
	return &Server{
		dataset:     dataset,
		engine:      engine,
		preferences: preferences,
		responder:   responder,
		images:      images,
		logger:      logger,
	}
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/spaces", s.handleSpaces)

		r.Route("/movies", func(r chi.Router) {
			r.Get("/search", s.handleSearch)
			r.Get("/popular", s.handlePopular)
			r.Get("/genre", s.handleByGenre)
			r.Get("/{title}", s.handleMovieDetails)
			r.Get("/{title}/similar", s.handleSimilar)
			r.Get("/{title}/hybrid", s.handleHybrid)
		})

		r.Get("/people/{name}", s.handlePerson)

		r.Post("/chat", s.handleChat)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Delete("/", s.handleClearUser)
			r.Get("/stats", s.handleStats)
			r.Get("/export", s.handleExport)
			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handlePutProfile)

			r.Post("/ratings", s.handleRate)
			r.Get("/ratings", s.handleListRatings)
			r.Delete("/ratings/{movieID}", s.handleDeleteRating)

			r.Post("/watchlist", s.handleWatchlistAdd)
			r.Get("/watchlist", s.handleWatchlist)
			r.Delete("/watchlist/{movieID}", s.handleWatchlistRemove)

			r.Get("/history", s.handleHistory)
			r.Post("/history", s.handleRecordView)
		})
	})

	return r
}

// Start begins serving on the given address and blocks until the
// listener fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("HTTP server listening", interfaces.String("addr", addr))

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("Request handled",
			interfaces.String("method", r.Method),
			interfaces.String("path", r.URL.Path),
			interfaces.Int("status", ww.Status()),
			interfaces.String("duration", time.Since(start).String()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"movies": s.dataset.Len(),
	})
}
