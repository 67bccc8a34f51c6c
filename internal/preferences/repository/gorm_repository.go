package repository

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cinematch/cinematch/internal/preferences/domain"
	"github.com/cinematch/cinematch/pkg/errors"
)

// GormRepository implements Repository using GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GORM-based repository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates or updates the preference tables.
func (r *GormRepository) Migrate() error {
	return r.db.AutoMigrate(
		&domain.Rating{},
		&domain.WatchlistEntry{},
		&domain.HistoryEntry{},
		&domain.Profile{},
	)
}

// Ratings

func (r *GormRepository) UpsertRating(ctx context.Context, rating *domain.Rating) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "rated_at"}),
		}).
		Create(rating).Error
	if err != nil {
		return errors.Wrap(errors.ErrorTypeInternal, "failed to save rating", err)
	}

	return nil
}

func (r *GormRepository) GetRating(ctx context.Context, userID string, movieID int) (*domain.Rating, error) {
	var rating domain.Rating

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		First(&rating).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("rating not found")
		}

		return nil, errors.Wrap(errors.ErrorTypeInternal, "failed to get rating", err)
	}

	return &rating, nil
}

func (r *GormRepository) ListRatings(ctx context.Context, userID string) ([]*domain.Rating, error) {
	var ratings []*domain.Rating

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("rated_at DESC").
		Find(&ratings).Error
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeInternal, "failed to list ratings", err)
	}

	return ratings, nil
}

func (r *GormRepository) DeleteRating(ctx context.Context, userID string, movieID int) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Delete(&domain.Rating{}).Error
	if err != nil {
		return errors.Wrap(errors.ErrorTypeInternal, "failed to delete rating", err)
	}

	return nil
}

// Watchlist

func (r *GormRepository) GetWatchlistEntry(ctx context.Context, userID string, movieID int) (*domain.WatchlistEntry, error) {
	var entry domain.WatchlistEntry

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		First(&entry).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("watchlist entry not found")
		}

		return nil, errors.Wrap(errors.ErrorTypeInternal, "failed to get watchlist entry", err)
	}

	return &entry, nil
}

func (r *GormRepository) CreateWatchlistEntry(ctx context.Context, entry *domain.WatchlistEntry) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if err != nil {
		if errors.IsDuplicateError(err) {
			return errors.Conflict("movie already on watchlist")
		}

		return errors.Wrap(errors.ErrorTypeInternal, "failed to create watchlist entry", err)
	}

	return nil
}

func (r *GormRepository) DeleteWatchlistEntry(ctx context.Context, userID string, movieID int) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Delete(&domain.WatchlistEntry{}).Error
	if err != nil {
		return errors.Wrap(errors.ErrorTypeInternal, "failed to delete watchlist entry", err)
	}

	return nil
}

func (r *GormRepository) ListWatchlist(ctx context.Context, userID string) ([]*domain.WatchlistEntry, error) {
	var entries []*domain.WatchlistEntry

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("added_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeInternal, "failed to list watchlist", err)
	}

	return entries, nil
}

// Viewing history

func (r *GormRepository) UpsertHistoryEntry(ctx context.Context, entry *domain.HistoryEntry) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "viewed_at"}),
		}).
		Create(entry).Error
	if err != nil {
		return errors.Wrap(errors.ErrorTypeInternal, "failed to record view", err)
	}

	return nil
}

func (r *GormRepository) ListHistory(ctx context.Context, userID string, limit int) ([]*domain.HistoryEntry, error) {
	var entries []*domain.HistoryEntry

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("viewed_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&entries).Error; err != nil {
		return nil, errors.Wrap(errors.ErrorTypeInternal, "failed to list history", err)
	}

	return entries, nil
}

func (r *GormRepository) CountHistory(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&domain.HistoryEntry{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(errors.ErrorTypeInternal, "failed to count history", err)
	}

	return count, nil
}

func (r *GormRepository) TrimHistory(ctx context.Context, userID string, keep int) error {
	// Delete everything older than the newest `keep` entries.
	newest := r.db.
		Model(&domain.HistoryEntry{}).
		Select("movie_id").
		Where("user_id = ?", userID).
		Order("viewed_at DESC").
		Limit(keep)

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND movie_id NOT IN (?)", userID, newest).
		Delete(&domain.HistoryEntry{}).Error
	if err != nil {
		return errors.Wrap(errors.ErrorTypeInternal, "failed to trim history", err)
	}

	return nil
}

// Profiles

func (r *GormRepository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var profile domain.Profile

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("profile not found")
		}

		return nil, errors.Wrap(errors.ErrorTypeInternal, "failed to get profile", err)
	}

	return &profile, nil
}

func (r *GormRepository) SaveProfile(ctx context.Context, profile *domain.Profile) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"favorite_genres", "prefer_popular", "prefer_genres", "updated_at"}),
		}).
		Create(profile).Error
	if err != nil {
		return errors.Wrap(errors.ErrorTypeInternal, "failed to save profile", err)
	}

	return nil
}

func (r *GormRepository) DeleteUserData(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&domain.Rating{},
			&domain.WatchlistEntry{},
			&domain.HistoryEntry{},
			&domain.Profile{},
		} {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return errors.Wrap(errors.ErrorTypeInternal, "failed to delete user data", err)
			}
		}

		return nil
	})
}
