package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tphuong3108/timnhatro-BE/internal/models"
	"github.com/tphuong3108/timnhatro-BE/internal/services"
)

// --- Mocks ---

// MockRoomService
type MockRoomService struct {
	mock.Mock
}

func (m *MockRoomService) CreateRoom(ctx context.Context, actor models.Actor, req services.CreateRoomRequest) (*models.Room, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockRoomService) GetRoomDetails(ctx context.Context, idOrSlug string) (*models.Room, []models.Review, error) {
	args := m.Called(ctx, idOrSlug)
	var room *models.Room
	if args.Get(0) != nil {
		room = args.Get(0).(*models.Room)
	}
	var reviews []models.Review
	if args.Get(1) != nil {
		reviews = args.Get(1).([]models.Review)
	}
	return room, reviews, args.Error(2)
}

func (m *MockRoomService) GetAdminRoomDetails(ctx context.Context, roomID primitive.ObjectID) (*models.Room, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockRoomService) ListApprovedRooms(ctx context.Context, q services.ListRoomsQuery) ([]models.Room, *services.Pagination, error) {
	return m.roomsPage(m.Called(ctx, q))
}

func (m *MockRoomService) ListHostRooms(ctx context.Context, hostID primitive.ObjectID, q services.ListRoomsQuery) ([]models.Room, *services.Pagination, error) {
	return m.roomsPage(m.Called(ctx, hostID, q))
}

func (m *MockRoomService) ListAllRooms(ctx context.Context, q services.ListRoomsQuery) ([]models.Room, *services.Pagination, error) {
	return m.roomsPage(m.Called(ctx, q))
}

func (m *MockRoomService) roomsPage(args mock.Arguments) ([]models.Room, *services.Pagination, error) {
	var rooms []models.Room
	if args.Get(0) != nil {
		rooms = args.Get(0).([]models.Room)
	}
	var pagination *services.Pagination
	if args.Get(1) != nil {
		pagination = args.Get(1).(*services.Pagination)
	}
	return rooms, pagination, args.Error(2)
}

func (m *MockRoomService) EditRoom(ctx context.Context, actor models.Actor, roomID primitive.ObjectID, req services.EditRoomRequest) (*models.Room, error) {
	args := m.Called(ctx, actor, roomID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockRoomService) ApproveRoom(ctx context.Context, adminID, roomID primitive.ObjectID) (*models.Room, error) {
	args := m.Called(ctx, adminID, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockRoomService) SoftDeleteRoom(ctx context.Context, actor models.Actor, roomID primitive.ObjectID) error {
	return m.Called(ctx, actor, roomID).Error(0)
}

func (m *MockRoomService) SetAvailability(ctx context.Context, actor models.Actor, roomID primitive.ObjectID, availability models.Availability) error {
	return m.Called(ctx, actor, roomID, availability).Error(0)
}

func (m *MockRoomService) ToggleLike(ctx context.Context, roomID, userID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomService) AddFavorite(ctx context.Context, roomID, userID primitive.ObjectID) error {
	return m.Called(ctx, roomID, userID).Error(0)
}

func (m *MockRoomService) RemoveFavorite(ctx context.Context, roomID, userID primitive.ObjectID) error {
	return m.Called(ctx, roomID, userID).Error(0)
}

func (m *MockRoomService) ListFavoriteRooms(ctx context.Context, userID primitive.ObjectID) ([]models.Room, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Room), args.Error(1)
}

func (m *MockRoomService) ReportRoom(ctx context.Context, roomID, reporterID primitive.ObjectID, reason string) error {
	return m.Called(ctx, roomID, reporterID, reason).Error(0)
}

func (m *MockRoomService) SearchRooms(ctx context.Context, filter services.SearchFilter) ([]models.Room, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Room), args.Error(1)
}

func (m *MockRoomService) NearbyRooms(ctx context.Context, longitude, latitude float64, maxDistanceMeters int) ([]models.Room, error) {
	args := m.Called(ctx, longitude, latitude, maxDistanceMeters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Room), args.Error(1)
}

func (m *MockRoomService) HotRooms(ctx context.Context) ([]services.HotRoom, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.HotRoom), args.Error(1)
}

// MockReviewService
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) CreateReview(ctx context.Context, userID, roomID primitive.ObjectID, req services.CreateReviewRequest) (*models.Review, error) {
	args := m.Called(ctx, userID, roomID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewService) ListRoomReviews(ctx context.Context, roomID primitive.ObjectID, page, limit int) ([]models.Review, *services.Pagination, error) {
	args := m.Called(ctx, roomID, page, limit)
	var reviews []models.Review
	if args.Get(0) != nil {
		reviews = args.Get(0).([]models.Review)
	}
	var pagination *services.Pagination
	if args.Get(1) != nil {
		pagination = args.Get(1).(*services.Pagination)
	}
	return reviews, pagination, args.Error(2)
}

func (m *MockReviewService) UpdateReview(ctx context.Context, userID, reviewID primitive.ObjectID, req services.UpdateReviewRequest) (*models.Review, error) {
	args := m.Called(ctx, userID, reviewID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewService) DeleteReview(ctx context.Context, actor models.Actor, reviewID primitive.ObjectID) error {
	return m.Called(ctx, actor, reviewID).Error(0)
}

func (m *MockReviewService) ToggleLike(ctx context.Context, reviewID, userID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, reviewID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewService) ReportReview(ctx context.Context, reviewID, reporterID primitive.ObjectID, reason string) error {
	return m.Called(ctx, reviewID, reporterID, reason).Error(0)
}

func (m *MockReviewService) HideReview(ctx context.Context, reviewID primitive.ObjectID) (*models.Review, error) {
	args := m.Called(ctx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewService) UnhideReview(ctx context.Context, reviewID primitive.ObjectID) (*models.Review, error) {
	args := m.Called(ctx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewService) AdminListReviews(ctx context.Context, page, limit int) ([]services.ReviewWithAuthor, *services.Pagination, error) {
	args := m.Called(ctx, page, limit)
	var reviews []services.ReviewWithAuthor
	if args.Get(0) != nil {
		reviews = args.Get(0).([]services.ReviewWithAuthor)
	}
	var pagination *services.Pagination
	if args.Get(1) != nil {
		pagination = args.Get(1).(*services.Pagination)
	}
	return reviews, pagination, args.Error(2)
}

// MockModerationService
type MockModerationService struct {
	mock.Mock
}

func (m *MockModerationService) RunEnforcementSweep(ctx context.Context) (*services.SweepSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SweepSummary), args.Error(1)
}

func (m *MockModerationService) GetReportStats(ctx context.Context) (*services.ReportStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReportStats), args.Error(1)
}

// MockStatsService
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) PopularRooms(ctx context.Context) ([]models.Room, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Room), args.Error(1)
}

func (m *MockStatsService) TopViewedRooms(ctx context.Context, limit int) ([]models.Room, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Room), args.Error(1)
}

func (m *MockStatsService) TopHosts(ctx context.Context) ([]services.TopHost, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.TopHost), args.Error(1)
}

func (m *MockStatsService) GetWeeklyOverview(ctx context.Context) (*services.WeeklyOverview, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.WeeklyOverview), args.Error(1)
}

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(ctx context.Context, req *services.CreateUserRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) BanUser(ctx context.Context, actor models.Actor, userID primitive.ObjectID) error {
	return m.Called(ctx, actor, userID).Error(0)
}
