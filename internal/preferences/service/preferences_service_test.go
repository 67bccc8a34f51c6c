package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/cinematch/cinematch/internal/preferences/domain"
	"github.com/cinematch/cinematch/internal/preferences/service"
	"github.com/cinematch/cinematch/internal/recommend"
	"github.com/cinematch/cinematch/pkg/errors"
	"github.com/cinematch/cinematch/pkg/events"
	"github.com/cinematch/cinematch/pkg/logger"
	"github.com/cinematch/cinematch/test/mocks"
)

type PreferencesServiceTestSuite struct {
	suite.Suite

	ctx      context.Context
	mockRepo *mocks.MockPreferencesRepository
	svc      *service.PreferencesService
	eventBus *events.InMemoryEventBus
}

func (suite *PreferencesServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.mockRepo = new(mocks.MockPreferencesRepository)
	suite.eventBus = events.NewInMemoryEventBus(logger.NewNoop())

	suite.svc = service.NewPreferencesService(
		suite.mockRepo,
		suite.eventBus,
		logger.NewNoop(),
	)
}

func (suite *PreferencesServiceTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
	_ = suite.eventBus.Stop()
}

func (suite *PreferencesServiceTestSuite) TestRateMovie_Success() {
	// Arrange
	suite.mockRepo.On("UpsertRating", suite.ctx, mock.AnythingOfType("*domain.Rating")).Return(nil)

	// Act
	rating, err := suite.svc.RateMovie(suite.ctx, "alice", 42, 8.5)

	// Assert
	suite.Require().NoError(err)
	suite.Equal("alice", rating.UserID)
	suite.Equal(42, rating.MovieID)
	suite.InDelta(8.5, rating.Value, 1e-9)
	suite.False(rating.RatedAt.IsZero())
}

func (suite *PreferencesServiceTestSuite) TestRateMovie_OutOfRange() {
	for _, value := range []float64{-0.5, 10.5, 100} {
		_, err := suite.svc.RateMovie(suite.ctx, "alice", 42, value)
		suite.Require().Error(err)
		suite.True(errors.IsBadRequest(err))
	}
}

func (suite *PreferencesServiceTestSuite) TestRateMovie_MissingUser() {
	_, err := suite.svc.RateMovie(suite.ctx, "", 42, 5)

	suite.Require().Error(err)
	suite.True(errors.IsBadRequest(err))
}

func (suite *PreferencesServiceTestSuite) TestRateMovie_BoundaryValues() {
	suite.mockRepo.On("UpsertRating", suite.ctx, mock.AnythingOfType("*domain.Rating")).Return(nil).Twice()

	for _, value := range []float64{service.MinRating, service.MaxRating} {
		_, err := suite.svc.RateMovie(suite.ctx, "alice", 42, value)
		suite.Require().NoError(err)
	}
}

func (suite *PreferencesServiceTestSuite) TestAddToWatchlist_New() {
	// Arrange
	suite.mockRepo.On("GetWatchlistEntry", suite.ctx, "alice", 42).
		Return(nil, errors.NotFound("watchlist entry not found"))
	suite.mockRepo.On("CreateWatchlistEntry", suite.ctx, mock.AnythingOfType("*domain.WatchlistEntry")).
		Return(nil)

	// Act
	added, err := suite.svc.AddToWatchlist(suite.ctx, "alice", 42, "Star Voyage")

	// Assert
	suite.Require().NoError(err)
	suite.True(added)
}

func (suite *PreferencesServiceTestSuite) TestAddToWatchlist_AlreadyPresent() {
	// Arrange
	suite.mockRepo.On("GetWatchlistEntry", suite.ctx, "alice", 42).
		Return(&domain.WatchlistEntry{UserID: "alice", MovieID: 42}, nil)

	// Act
	added, err := suite.svc.AddToWatchlist(suite.ctx, "alice", 42, "Star Voyage")

	// Assert: no error, but nothing was created
	suite.Require().NoError(err)
	suite.False(added)
	suite.mockRepo.AssertNotCalled(suite.T(), "CreateWatchlistEntry", mock.Anything, mock.Anything)
}

func (suite *PreferencesServiceTestSuite) TestAddToWatchlist_ConcurrentAdd() {
	// A conflict from the insert means another request won the race.
	suite.mockRepo.On("GetWatchlistEntry", suite.ctx, "alice", 42).
		Return(nil, errors.NotFound("watchlist entry not found"))
	suite.mockRepo.On("CreateWatchlistEntry", suite.ctx, mock.AnythingOfType("*domain.WatchlistEntry")).
		Return(errors.Conflict("movie already on watchlist"))

	added, err := suite.svc.AddToWatchlist(suite.ctx, "alice", 42, "Star Voyage")

	suite.Require().NoError(err)
	suite.False(added)
}

func (suite *PreferencesServiceTestSuite) TestRemoveFromWatchlist_Present() {
	suite.mockRepo.On("GetWatchlistEntry", suite.ctx, "alice", 42).
		Return(&domain.WatchlistEntry{UserID: "alice", MovieID: 42}, nil)
	suite.mockRepo.On("DeleteWatchlistEntry", suite.ctx, "alice", 42).Return(nil)

	removed, err := suite.svc.RemoveFromWatchlist(suite.ctx, "alice", 42)

	suite.Require().NoError(err)
	suite.True(removed)
}

func (suite *PreferencesServiceTestSuite) TestRemoveFromWatchlist_Absent() {
	suite.mockRepo.On("GetWatchlistEntry", suite.ctx, "alice", 42).
		Return(nil, errors.NotFound("watchlist entry not found"))

	removed, err := suite.svc.RemoveFromWatchlist(suite.ctx, "alice", 42)

	suite.Require().NoError(err)
	suite.False(removed)
}

func (suite *PreferencesServiceTestSuite) TestRecordView_UnderBound() {
	suite.mockRepo.On("UpsertHistoryEntry", suite.ctx, mock.AnythingOfType("*domain.HistoryEntry")).
		Return(nil)
	suite.mockRepo.On("CountHistory", suite.ctx, "alice").Return(int64(5), nil)

	err := suite.svc.RecordView(suite.ctx, "alice", 42, "Star Voyage")

	suite.Require().NoError(err)
	suite.mockRepo.AssertNotCalled(suite.T(), "TrimHistory", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PreferencesServiceTestSuite) TestRecordView_EvictsOldest() {
	suite.mockRepo.On("UpsertHistoryEntry", suite.ctx, mock.AnythingOfType("*domain.HistoryEntry")).
		Return(nil)
	suite.mockRepo.On("CountHistory", suite.ctx, "alice").
		Return(int64(service.MaxHistoryEntries+1), nil)
	suite.mockRepo.On("TrimHistory", suite.ctx, "alice", service.MaxHistoryEntries).Return(nil)

	err := suite.svc.RecordView(suite.ctx, "alice", 42, "Star Voyage")

	suite.Require().NoError(err)
}

func (suite *PreferencesServiceTestSuite) TestHistory_DefaultLimit() {
	suite.mockRepo.On("ListHistory", suite.ctx, "alice", 20).
		Return([]*domain.HistoryEntry{}, nil)

	_, err := suite.svc.History(suite.ctx, "alice", 0)

	suite.Require().NoError(err)
}

func (suite *PreferencesServiceTestSuite) TestHistory_LimitCapped() {
	suite.mockRepo.On("ListHistory", suite.ctx, "alice", service.MaxHistoryEntries).
		Return([]*domain.HistoryEntry{}, nil)

	_, err := suite.svc.History(suite.ctx, "alice", 5000)

	suite.Require().NoError(err)
}

func (suite *PreferencesServiceTestSuite) TestProfile_DefaultWhenMissing() {
	suite.mockRepo.On("GetProfile", suite.ctx, "alice").
		Return(nil, errors.NotFound("profile not found"))

	profile, err := suite.svc.Profile(suite.ctx, "alice")

	suite.Require().NoError(err)
	suite.Equal("alice", profile.UserID)
	suite.Empty(profile.FavoriteGenreList())
}

func (suite *PreferencesServiceTestSuite) TestRecommendationWeights_Default() {
	suite.mockRepo.On("GetProfile", suite.ctx, "alice").
		Return(nil, errors.NotFound("profile not found"))
	suite.mockRepo.On("ListRatings", suite.ctx, "alice").
		Return([]*domain.Rating{}, nil)

	weights, err := suite.svc.RecommendationWeights(suite.ctx, "alice")

	suite.Require().NoError(err)
	suite.Equal(recommend.DefaultHybridWeights(), weights)
}

func (suite *PreferencesServiceTestSuite) TestRecommendationWeights_Personalized() {
	profile := &domain.Profile{UserID: "alice", PreferPopular: true}
	ratings := make([]*domain.Rating, 15)
	for i := range ratings {
		ratings[i] = &domain.Rating{UserID: "alice", MovieID: i, Value: 7}
	}

	suite.mockRepo.On("GetProfile", suite.ctx, "alice").Return(profile, nil)
	suite.mockRepo.On("ListRatings", suite.ctx, "alice").Return(ratings, nil)

	weights, err := suite.svc.RecommendationWeights(suite.ctx, "alice")

	suite.Require().NoError(err)

	defaults := recommend.DefaultHybridWeights()
	suite.Greater(weights.Content, defaults.Content)
	suite.Less(weights.Genre, defaults.Genre)
	suite.Positive(weights.Popularity)
}

func (suite *PreferencesServiceTestSuite) TestStats() {
	suite.mockRepo.On("ListRatings", suite.ctx, "alice").Return([]*domain.Rating{
		{UserID: "alice", MovieID: 1, Value: 6},
		{UserID: "alice", MovieID: 2, Value: 8},
	}, nil)
	suite.mockRepo.On("ListWatchlist", suite.ctx, "alice").Return([]*domain.WatchlistEntry{
		{UserID: "alice", MovieID: 3},
	}, nil)
	suite.mockRepo.On("CountHistory", suite.ctx, "alice").Return(int64(4), nil)

	stats, err := suite.svc.Stats(suite.ctx, "alice")

	suite.Require().NoError(err)
	suite.Equal(2, stats.RatingCount)
	suite.InDelta(7.0, stats.AverageRating, 1e-9)
	suite.InDelta(6.0, stats.LowestRating, 1e-9)
	suite.InDelta(8.0, stats.HighestRating, 1e-9)
	suite.Equal(1, stats.WatchlistCount)
	suite.Equal(4, stats.HistoryCount)
}

func (suite *PreferencesServiceTestSuite) TestExport() {
	suite.mockRepo.On("ListRatings", suite.ctx, "alice").
		Return([]*domain.Rating{{UserID: "alice", MovieID: 1, Value: 9}}, nil)
	suite.mockRepo.On("ListWatchlist", suite.ctx, "alice").
		Return([]*domain.WatchlistEntry{}, nil)
	suite.mockRepo.On("ListHistory", suite.ctx, "alice", 0).
		Return([]*domain.HistoryEntry{}, nil)
	suite.mockRepo.On("GetProfile", suite.ctx, "alice").
		Return(nil, errors.NotFound("profile not found"))

	data, err := suite.svc.Export(suite.ctx, "alice")

	suite.Require().NoError(err)
	suite.Equal("alice", data.UserID)
	suite.Len(data.Ratings, 1)
	suite.NotNil(data.Profile)
}

func (suite *PreferencesServiceTestSuite) TestClearUserData() {
	suite.mockRepo.On("DeleteUserData", suite.ctx, "alice").Return(nil)

	err := suite.svc.ClearUserData(suite.ctx, "alice")

	suite.Require().NoError(err)
}

func TestPreferencesServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PreferencesServiceTestSuite))
}
