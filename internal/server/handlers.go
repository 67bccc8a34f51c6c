package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/cinematch/cinematch/internal/recommend"
	"github.com/cinematch/cinematch/pkg/errors"
	"github.com/cinematch/cinematch/pkg/interfaces"
	"github.com/cinematch/cinematch/pkg/models"
)

const (
	defaultCount       = 10
	defaultSearchLimit = 10
)

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return n
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

func (s *Server) handleSpaces(w http.ResponseWriter, r *http.Request) {
	known := make([]string, 0, len(models.AllFeatureSpaces()))
	for _, space := range models.AllFeatureSpaces() {
		known = append(known, string(space))
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"spaces": known,
		"built":  s.engine.AvailableSpaces(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, errors.BadRequest("query parameter q is required"))

		return
	}

	limit := queryInt(r, "limit", defaultSearchLimit)
	titles := s.dataset.TitlesContaining(query, limit)

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":  query,
		"titles": titles,
	})
}

func (s *Server) handleMovieDetails(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")

	movie, err := s.engine.MovieByTitle(title)
	if err != nil {
		s.writeError(w, err)

		return
	}

	// Viewing a movie's details while identified feeds the history.
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		if err := s.preferences.RecordView(r.Context(), userID, movie.ID, movie.Title); err != nil {
			s.logger.Warn("Failed to record view",
				interfaces.String("user_id", userID),
				interfaces.Error(err))
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"movie":      movie,
		"poster_url": s.images.MoviePoster(r.Context(), movie.ID),
	})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")

	space := models.FeatureSpace(r.URL.Query().Get("space"))
	if space == "" {
		space = models.SpaceTags
	}

	count := queryInt(r, "count", defaultCount)

	recs, err := s.engine.RecommendByFeature(r.Context(), title, space, count)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"title":           title,
		"space":           space,
		"recommendations": recs,
	})
}

func (s *Server) handleHybrid(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")
	count := queryInt(r, "count", defaultCount)

	var weights *recommend.HybridWeights

	if userID := r.URL.Query().Get("user_id"); userID != "" {
		personalized, err := s.preferences.RecommendationWeights(r.Context(), userID)
		if err != nil {
			s.writeError(w, err)

			return
		}
		weights = &personalized
	}

	if weights == nil {
		weights = s.defaultWeights
	}

	recs, err := s.engine.RecommendHybrid(r.Context(), title, count, weights)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"title":           title,
		"recommendations": recs,
	})
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	count := queryInt(r, "count", defaultCount)

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": s.engine.RecommendByPopularity(count),
	})
}

func (s *Server) handleByGenre(w http.ResponseWriter, r *http.Request) {
	genres := splitCSV(r.URL.Query().Get("genres"))
	if len(genres) == 0 {
		s.writeError(w, errors.BadRequest("query parameter genres is required"))

		return
	}

	count := queryInt(r, "count", defaultCount)

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"genres":          genres,
		"recommendations": s.engine.ByGenreFallback(genres, count),
	})
}

func (s *Server) handlePerson(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.writeJSON(w, http.StatusOK, s.images.PersonProfile(r.Context(), name))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		s.writeError(w, errors.BadRequest("message is required"))

		return
	}

	s.writeJSON(w, http.StatusOK, s.responder.Respond(req.Message))
}

// User preference handlers

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req struct {
		MovieID int     `json:"movie_id"`
		Value   float64 `json:"value"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.BadRequest("invalid request body"))

		return
	}

	rating, err := s.preferences.RateMovie(r.Context(), userID, req.MovieID, req.Value)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, rating)
}

func (s *Server) handleListRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := s.preferences.ListRatings(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ratings": ratings})
}

func (s *Server) handleDeleteRating(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.Atoi(chi.URLParam(r, "movieID"))
	if err != nil {
		s.writeError(w, errors.BadRequest("invalid movie id"))

		return
	}

	if err := s.preferences.DeleteRating(r.Context(), chi.URLParam(r, "userID"), movieID); err != nil {
		s.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req struct {
		MovieID int    `json:"movie_id"`
		Title   string `json:"title"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.BadRequest("invalid request body"))

		return
	}

	if req.Title == "" {
		if idx, ok := s.dataset.IndexOfID(req.MovieID); ok {
			if movie, err := s.dataset.MovieAt(idx); err == nil {
				req.Title = movie.Title
			}
		}
	}

	added, err := s.preferences.AddToWatchlist(r.Context(), userID, req.MovieID, req.Title)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"added": added})
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	entries, err := s.preferences.Watchlist(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"watchlist": entries})
}

func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.Atoi(chi.URLParam(r, "movieID"))
	if err != nil {
		s.writeError(w, errors.BadRequest("invalid movie id"))

		return
	}

	removed, err := s.preferences.RemoveFromWatchlist(r.Context(), chi.URLParam(r, "userID"), movieID)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"removed": removed})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.preferences.History(r.Context(), chi.URLParam(r, "userID"), queryInt(r, "limit", 0))
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

func (s *Server) handleRecordView(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req struct {
		MovieID int    `json:"movie_id"`
		Title   string `json:"title"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.BadRequest("invalid request body"))

		return
	}

	if err := s.preferences.RecordView(r.Context(), userID, req.MovieID, req.Title); err != nil {
		s.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.preferences.Stats(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.preferences.Export(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.preferences.Profile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":         profile.UserID,
		"favorite_genres": profile.FavoriteGenreList(),
		"prefer_popular":  profile.PreferPopular,
		"prefer_genres":   profile.PreferGenres,
	})
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req struct {
		FavoriteGenres []string `json:"favorite_genres"`
		PreferPopular  bool     `json:"prefer_popular"`
		PreferGenres   bool     `json:"prefer_genres"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.BadRequest("invalid request body"))

		return
	}

	profile, err := s.preferences.UpdateProfile(r.Context(), userID, req.FavoriteGenres, req.PreferPopular, req.PreferGenres)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":         profile.UserID,
		"favorite_genres": profile.FavoriteGenreList(),
		"prefer_popular":  profile.PreferPopular,
		"prefer_genres":   profile.PreferGenres,
	})
}

func (s *Server) handleClearUser(w http.ResponseWriter, r *http.Request) {
	if err := s.preferences.ClearUserData(r.Context(), chi.URLParam(r, "userID")); err != nil {
		s.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
