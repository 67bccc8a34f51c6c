package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cinematch/cinematch/internal/preferences/domain"
)

// MockPreferencesRepository is a mock implementation of the preferences
// repository interface.
type MockPreferencesRepository struct {
	mock.Mock
}

func (m *MockPreferencesRepository) UpsertRating(ctx context.Context, rating *domain.Rating) error {
	args := m.Called(ctx, rating)

	return args.Error(0)
}

func (m *MockPreferencesRepository) GetRating(ctx context.Context, userID string, movieID int) (*domain.Rating, error) {
	args := m.Called(ctx, userID, movieID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Rating), args.Error(1)
}

func (m *MockPreferencesRepository) ListRatings(ctx context.Context, userID string) ([]*domain.Rating, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*domain.Rating), args.Error(1)
}

func (m *MockPreferencesRepository) DeleteRating(ctx context.Context, userID string, movieID int) error {
	args := m.Called(ctx, userID, movieID)

	return args.Error(0)
}

func (m *MockPreferencesRepository) GetWatchlistEntry(ctx context.Context, userID string, movieID int) (*domain.WatchlistEntry, error) {
	args := m.Called(ctx, userID, movieID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.WatchlistEntry), args.Error(1)
}

func (m *MockPreferencesRepository) CreateWatchlistEntry(ctx context.Context, entry *domain.WatchlistEntry) error {
	args := m.Called(ctx, entry)

	return args.Error(0)
}

func (m *MockPreferencesRepository) DeleteWatchlistEntry(ctx context.Context, userID string, movieID int) error {
	args := m.Called(ctx, userID, movieID)

	return args.Error(0)
}

func (m *MockPreferencesRepository) ListWatchlist(ctx context.Context, userID string) ([]*domain.WatchlistEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*domain.WatchlistEntry), args.Error(1)
}

func (m *MockPreferencesRepository) UpsertHistoryEntry(ctx context.Context, entry *domain.HistoryEntry) error {
	args := m.Called(ctx, entry)

	return args.Error(0)
}

func (m *MockPreferencesRepository) ListHistory(ctx context.Context, userID string, limit int) ([]*domain.HistoryEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*domain.HistoryEntry), args.Error(1)
}

func (m *MockPreferencesRepository) CountHistory(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPreferencesRepository) TrimHistory(ctx context.Context, userID string, keep int) error {
	args := m.Called(ctx, userID, keep)

	return args.Error(0)
}

func (m *MockPreferencesRepository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockPreferencesRepository) SaveProfile(ctx context.Context, profile *domain.Profile) error {
	args := m.Called(ctx, profile)

	return args.Error(0)
}

func (m *MockPreferencesRepository) DeleteUserData(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)

	return args.Error(0)
}
