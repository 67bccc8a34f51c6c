package service

import (
	"context"
	"time"

	"github.com/cinematch/cinematch/internal/preferences/domain"
	"github.com/cinematch/cinematch/internal/preferences/repository"
	"github.com/cinematch/cinematch/internal/recommend"
	"github.com/cinematch/cinematch/pkg/errors"
	"github.com/cinematch/cinematch/pkg/events"
	"github.com/cinematch/cinematch/pkg/interfaces"
)

const (
	// MinRating and MaxRating bound the accepted rating scale.
	MinRating = 0.0
	MaxRating = 10.0

	// MaxHistoryEntries bounds viewing history per user. The oldest
	// entries are evicted once the bound is exceeded.
	MaxHistoryEntries = 100

	defaultHistoryLimit = 20

	// establishedTasteThreshold is the rating count past which a user's
	// content signal is trusted more than the global blend.
	establishedTasteThreshold = 10
)

// UserStats summarizes a user's stored activity.
type UserStats struct {
	RatingCount    int     `json:"rating_count"`
	AverageRating  float64 `json:"average_rating"`
	LowestRating   float64 `json:"lowest_rating"`
	HighestRating  float64 `json:"highest_rating"`
	WatchlistCount int     `json:"watchlist_count"`
	HistoryCount   int     `json:"history_count"`
}

// UserData bundles everything stored for one user, for export.
type UserData struct {
	UserID    string                   `json:"user_id"`
	Ratings   []*domain.Rating         `json:"ratings"`
	Watchlist []*domain.WatchlistEntry `json:"watchlist"`
	History   []*domain.HistoryEntry   `json:"history"`
	Profile   *domain.Profile          `json:"profile"`
}

// PreferencesService manages ratings, watchlists, viewing history, and
// per-user recommendation profiles.
type PreferencesService struct {
	repo     repository.Repository
	eventBus interfaces.EventBus
	logger   interfaces.Logger
}

// NewPreferencesService creates a new preferences service.
func NewPreferencesService(
	repo repository.Repository,
	eventBus interfaces.EventBus,
	logger interfaces.Logger,
) *PreferencesService {
	return &PreferencesService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// RateMovie stores a rating, overwriting any previous rating by the same
// user for the same movie.
func (s *PreferencesService) RateMovie(ctx context.Context, userID string, movieID int, value float64) (*domain.Rating, error) {
	if userID == "" {
		return nil, errors.BadRequest("user id is required")
	}
	if value < MinRating || value > MaxRating {
		return nil, errors.BadRequest("rating must be between 0 and 10")
	}

	rating := &domain.Rating{
		UserID:  userID,
		MovieID: movieID,
		Value:   value,
		RatedAt: time.Now(),
	}

	if err := s.repo.UpsertRating(ctx, rating); err != nil {
		return nil, err
	}

	s.eventBus.PublishAsync(ctx, events.NewAggregateEvent(events.TypeMovieRated, userID, map[string]interface{}{
		"user_id":  userID,
		"movie_id": movieID,
		"value":    value,
	}))

	return rating, nil
}

// GetRating returns the user's rating for a movie, if any.
func (s *PreferencesService) GetRating(ctx context.Context, userID string, movieID int) (*domain.Rating, error) {
	return s.repo.GetRating(ctx, userID, movieID)
}

// ListRatings returns all ratings by the user, newest first.
func (s *PreferencesService) ListRatings(ctx context.Context, userID string) ([]*domain.Rating, error) {
	return s.repo.ListRatings(ctx, userID)
}

// DeleteRating removes the user's rating for a movie.
func (s *PreferencesService) DeleteRating(ctx context.Context, userID string, movieID int) error {
	return s.repo.DeleteRating(ctx, userID, movieID)
}

// AddToWatchlist adds a movie to the user's watchlist. Adding a movie
// that is already present is not an error; added reports whether a new
// entry was created.
func (s *PreferencesService) AddToWatchlist(ctx context.Context, userID string, movieID int, title string) (bool, error) {
	if userID == "" {
		return false, errors.BadRequest("user id is required")
	}

	_, err := s.repo.GetWatchlistEntry(ctx, userID, movieID)
	if err == nil {
		s.logger.Debug("Movie already on watchlist",
			interfaces.String("user_id", userID),
			interfaces.Int("movie_id", movieID))

		return false, nil
	}
	if !errors.IsNotFound(err) {
		return false, err
	}

	entry := &domain.WatchlistEntry{
		UserID:  userID,
		MovieID: movieID,
		Title:   title,
		AddedAt: time.Now(),
	}

	if err := s.repo.CreateWatchlistEntry(ctx, entry); err != nil {
		// Lost a race with a concurrent add; treat as already present.
		if errors.IsConflict(err) {
			return false, nil
		}

		return false, err
	}

	s.eventBus.PublishAsync(ctx, events.NewAggregateEvent(events.TypeWatchlistAdded, userID, map[string]interface{}{
		"user_id":  userID,
		"movie_id": movieID,
		"title":    title,
	}))

	return true, nil
}

// RemoveFromWatchlist removes a movie from the user's watchlist. removed
// reports whether an entry existed.
func (s *PreferencesService) RemoveFromWatchlist(ctx context.Context, userID string, movieID int) (bool, error) {
	_, err := s.repo.GetWatchlistEntry(ctx, userID, movieID)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}

		return false, err
	}

	if err := s.repo.DeleteWatchlistEntry(ctx, userID, movieID); err != nil {
		return false, err
	}

	s.eventBus.PublishAsync(ctx, events.NewAggregateEvent(events.TypeWatchlistRemoved, userID, map[string]interface{}{
		"user_id":  userID,
		"movie_id": movieID,
	}))

	return true, nil
}

// Watchlist returns the user's watchlist in insertion order.
func (s *PreferencesService) Watchlist(ctx context.Context, userID string) ([]*domain.WatchlistEntry, error) {
	return s.repo.ListWatchlist(ctx, userID)
}

// RecordView records that the user viewed a movie's details. A repeat
// view bumps the existing entry's timestamp. History is bounded; the
// oldest entries are evicted past MaxHistoryEntries.
func (s *PreferencesService) RecordView(ctx context.Context, userID string, movieID int, title string) error {
	if userID == "" {
		return errors.BadRequest("user id is required")
	}

	entry := &domain.HistoryEntry{
		UserID:   userID,
		MovieID:  movieID,
		Title:    title,
		ViewedAt: time.Now(),
	}

	if err := s.repo.UpsertHistoryEntry(ctx, entry); err != nil {
		return err
	}

	count, err := s.repo.CountHistory(ctx, userID)
	if err != nil {
		return err
	}
	if count > MaxHistoryEntries {
		if err := s.repo.TrimHistory(ctx, userID, MaxHistoryEntries); err != nil {
			return err
		}
	}

	s.eventBus.PublishAsync(ctx, events.NewAggregateEvent(events.TypeMovieViewed, userID, map[string]interface{}{
		"user_id":  userID,
		"movie_id": movieID,
		"title":    title,
	}))

	return nil
}

// History returns the user's viewing history, newest first.
func (s *PreferencesService) History(ctx context.Context, userID string, limit int) ([]*domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > MaxHistoryEntries {
		limit = MaxHistoryEntries
	}

	return s.repo.ListHistory(ctx, userID, limit)
}

// UpdateProfile stores the user's explicit recommendation preferences.
func (s *PreferencesService) UpdateProfile(ctx context.Context, userID string, favoriteGenres []string, preferPopular, preferGenres bool) (*domain.Profile, error) {
	if userID == "" {
		return nil, errors.BadRequest("user id is required")
	}

	profile := &domain.Profile{
		UserID:        userID,
		PreferPopular: preferPopular,
		PreferGenres:  preferGenres,
		UpdatedAt:     time.Now(),
	}
	profile.SetFavoriteGenres(favoriteGenres)

	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// Profile returns the user's stored profile, or a default profile when
// none has been saved yet.
func (s *PreferencesService) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return &domain.Profile{UserID: userID}, nil
		}

		return nil, err
	}

	return profile, nil
}

// RecommendationWeights derives a hybrid blend for the user from their
// profile and rating activity. With no stored signal it returns the
// default blend.
func (s *PreferencesService) RecommendationWeights(ctx context.Context, userID string) (recommend.HybridWeights, error) {
	weights := recommend.DefaultHybridWeights()

	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return weights, err
	}

	if profile.PreferPopular {
		weights.Popularity += 0.1
		weights.Content -= 0.05
		weights.Genre -= 0.05
	}
	if profile.PreferGenres || profile.FavoriteGenres != "" {
		weights.Genre += 0.1
		weights.Content -= 0.05
		weights.Popularity -= 0.05
	}

	ratings, err := s.repo.ListRatings(ctx, userID)
	if err != nil {
		return weights, err
	}
	if len(ratings) > establishedTasteThreshold {
		weights.Content += 0.1
		weights.Popularity -= 0.1
	}

	// Keep every component positive; the engine normalizes the rest.
	const floor = 0.05
	if weights.Content < floor {
		weights.Content = floor
	}
	if weights.Genre < floor {
		weights.Genre = floor
	}
	if weights.Popularity < floor {
		weights.Popularity = floor
	}

	return weights, nil
}

// Stats summarizes the user's stored activity.
func (s *PreferencesService) Stats(ctx context.Context, userID string) (*UserStats, error) {
	ratings, err := s.repo.ListRatings(ctx, userID)
	if err != nil {
		return nil, err
	}

	watchlist, err := s.repo.ListWatchlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	historyCount, err := s.repo.CountHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &UserStats{
		RatingCount:    len(ratings),
		WatchlistCount: len(watchlist),
		HistoryCount:   int(historyCount),
	}

	if len(ratings) > 0 {
		var sum float64

		stats.LowestRating = ratings[0].Value
		stats.HighestRating = ratings[0].Value

		for _, r := range ratings {
			sum += r.Value
			if r.Value < stats.LowestRating {
				stats.LowestRating = r.Value
			}
			if r.Value > stats.HighestRating {
				stats.HighestRating = r.Value
			}
		}

		stats.AverageRating = sum / float64(len(ratings))
	}

	return stats, nil
}

// Export returns everything stored for the user.
func (s *PreferencesService) Export(ctx context.Context, userID string) (*UserData, error) {
	ratings, err := s.repo.ListRatings(ctx, userID)
	if err != nil {
		return nil, err
	}

	watchlist, err := s.repo.ListWatchlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListHistory(ctx, userID, 0)
	if err != nil {
		return nil, err
	}

	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserData{
		UserID:    userID,
		Ratings:   ratings,
		Watchlist: watchlist,
		History:   history,
		Profile:   profile,
	}, nil
}

// ClearUserData removes every stored row belonging to the user.
func (s *PreferencesService) ClearUserData(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.BadRequest("user id is required")
	}

	if err := s.repo.DeleteUserData(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("Cleared user data", interfaces.String("user_id", userID))

	return nil
}
