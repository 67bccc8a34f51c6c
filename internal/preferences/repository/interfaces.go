package repository

import (
	"context"

	"github.com/cinematch/cinematch/internal/preferences/domain"
)

// Repository defines persistence operations for user preference data.
type Repository interface {
	// Ratings
	UpsertRating(ctx context.Context, rating *domain.Rating) error
	GetRating(ctx context.Context, userID string, movieID int) (*domain.Rating, error)
	ListRatings(ctx context.Context, userID string) ([]*domain.Rating, error)
	DeleteRating(ctx context.Context, userID string, movieID int) error

	// Watchlist
	GetWatchlistEntry(ctx context.Context, userID string, movieID int) (*domain.WatchlistEntry, error)
	CreateWatchlistEntry(ctx context.Context, entry *domain.WatchlistEntry) error
	DeleteWatchlistEntry(ctx context.Context, userID string, movieID int) error
	ListWatchlist(ctx context.Context, userID string) ([]*domain.WatchlistEntry, error)

	// Viewing history
	UpsertHistoryEntry(ctx context.Context, entry *domain.HistoryEntry) error
	ListHistory(ctx context.Context, userID string, limit int) ([]*domain.HistoryEntry, error)
	CountHistory(ctx context.Context, userID string) (int64, error)
	TrimHistory(ctx context.Context, userID string, keep int) error

	// Profiles
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	SaveProfile(ctx context.Context, profile *domain.Profile) error

	// DeleteUserData removes every row belonging to the user.
	DeleteUserData(ctx context.Context, userID string) error
}
