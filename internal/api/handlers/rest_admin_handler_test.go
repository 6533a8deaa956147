package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tphuong3108/timnhatro-BE/internal/api/handlers"
	"github.com/tphuong3108/timnhatro-BE/internal/models"
	"github.com/tphuong3108/timnhatro-BE/internal/services"
)

func newAdminHandler(room *MockRoomService, review *MockReviewService, moderation *MockModerationService,
	stats *MockStatsService, user *MockUserService) *handlers.RestAdminHandler {
	return handlers.NewRestAdminHandler(room, review, moderation, stats, user, nil, nil)
}

func TestAdminApproveRoom(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockRoomSvc := new(MockRoomService)
	handler := newAdminHandler(mockRoomSvc, nil, nil, nil, nil)
	admin := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
	roomID := primitive.NewObjectID()

	r := gin.New()
	r.PUT("/v1/admin/rooms/:id/approve", asActor(admin), handler.ApproveRoom)

	approved := &models.Room{ID: roomID, Status: models.RoomStatusApproved}
	mockRoomSvc.On("ApproveRoom", mock.Anything, admin.UserID, roomID).Return(approved, nil)

	req, _ := http.NewRequest(http.MethodPut, "/v1/admin/rooms/"+roomID.Hex()+"/approve", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockRoomSvc.AssertExpectations(t)
}

func TestAdminApproveRoom_AlreadyApproved(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockRoomSvc := new(MockRoomService)
	handler := newAdminHandler(mockRoomSvc, nil, nil, nil, nil)
	admin := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
	roomID := primitive.NewObjectID()

	r := gin.New()
	r.PUT("/v1/admin/rooms/:id/approve", asActor(admin), handler.ApproveRoom)

	mockRoomSvc.On("ApproveRoom", mock.Anything, admin.UserID, roomID).
		Return(nil, services.ErrAlreadyApproved)

	req, _ := http.NewRequest(http.MethodPut, "/v1/admin/rooms/"+roomID.Hex()+"/approve", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockRoomSvc.AssertExpectations(t)
}

func TestAdminRunSweep_Sync(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockModerationSvc := new(MockModerationService)
	handler := newAdminHandler(nil, nil, mockModerationSvc, nil, nil)
	admin := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}

	r := gin.New()
	r.POST("/v1/admin/moderation/sweep", asActor(admin), handler.RunSweep)

	summary := &services.SweepSummary{
		StartedAt:     time.Now().UTC(),
		FinishedAt:    time.Now().UTC(),
		RoomsExamined: 3,
		RoomsHidden:   1,
	}
	mockModerationSvc.On("RunEnforcementSweep", mock.Anything).Return(summary, nil)

	req, _ := http.NewRequest(http.MethodPost, "/v1/admin/moderation/sweep", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"roomsHidden":1`)
	mockModerationSvc.AssertExpectations(t)
}

func TestAdminRunSweep_AsyncWithoutWorker(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockModerationSvc := new(MockModerationService)
	handler := newAdminHandler(nil, nil, mockModerationSvc, nil, nil)
	admin := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}

	r := gin.New()
	r.POST("/v1/admin/moderation/sweep", asActor(admin), handler.RunSweep)

	// No asynq client wired: the async path degrades instead of panicking.
	req, _ := http.NewRequest(http.MethodPost, "/v1/admin/moderation/sweep?async=true", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	mockModerationSvc.AssertNotCalled(t, "RunEnforcementSweep")
}

func TestAdminGetReportStats(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockModerationSvc := new(MockModerationService)
	handler := newAdminHandler(nil, nil, mockModerationSvc, nil, nil)
	admin := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}

	r := gin.New()
	r.GET("/v1/admin/reports", asActor(admin), handler.GetReportStats)

	mockModerationSvc.On("GetReportStats", mock.Anything).
		Return(&services.ReportStats{}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/v1/admin/reports", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockModerationSvc.AssertExpectations(t)
}

func TestAdminHideReview(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockReviewSvc := new(MockReviewService)
	handler := newAdminHandler(nil, mockReviewSvc, nil, nil, nil)
	admin := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
	reviewID := primitive.NewObjectID()

	r := gin.New()
	r.PUT("/v1/admin/reviews/:id/hide", asActor(admin), handler.HideReview)

	hidden := &models.Review{ID: reviewID, Hidden: true}
	mockReviewSvc.On("HideReview", mock.Anything, reviewID).Return(hidden, nil)

	req, _ := http.NewRequest(http.MethodPut, "/v1/admin/reviews/"+reviewID.Hex()+"/hide", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockReviewSvc.AssertExpectations(t)
}

func TestAdminGetWeeklyOverview(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockStatsSvc := new(MockStatsService)
	handler := newAdminHandler(nil, nil, nil, mockStatsSvc, nil)
	admin := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}

	r := gin.New()
	r.GET("/v1/admin/stats/weekly", asActor(admin), handler.GetWeeklyOverview)

	mockStatsSvc.On("GetWeeklyOverview", mock.Anything).
		Return(&services.WeeklyOverview{NewRooms: 2}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/v1/admin/stats/weekly", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"newRooms":2`)
	mockStatsSvc.AssertExpectations(t)
}

func TestAdminTopViewedRooms_DefaultLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockStatsSvc := new(MockStatsService)
	handler := newAdminHandler(nil, nil, nil, mockStatsSvc, nil)
	admin := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}

	r := gin.New()
	r.GET("/v1/admin/stats/top-viewed", asActor(admin), handler.GetTopViewedRooms)

	mockStatsSvc.On("TopViewedRooms", mock.Anything, 6).Return([]models.Room{}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/v1/admin/stats/top-viewed", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockStatsSvc.AssertExpectations(t)
}

func TestAdminBanUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockUserSvc := new(MockUserService)
	handler := newAdminHandler(nil, nil, nil, nil, mockUserSvc)
	admin := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
	userID := primitive.NewObjectID()

	r := gin.New()
	r.PUT("/v1/admin/users/:id/ban", asActor(admin), handler.BanUser)

	mockUserSvc.On("BanUser", mock.Anything, admin, userID).Return(nil)

	req, _ := http.NewRequest(http.MethodPut, "/v1/admin/users/"+userID.Hex()+"/ban", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUserSvc.AssertExpectations(t)
}

func TestAdminBanUser_AlreadyBanned(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockUserSvc := new(MockUserService)
	handler := newAdminHandler(nil, nil, nil, nil, mockUserSvc)
	admin := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
	userID := primitive.NewObjectID()

	r := gin.New()
	r.PUT("/v1/admin/users/:id/ban", asActor(admin), handler.BanUser)

	mockUserSvc.On("BanUser", mock.Anything, admin, userID).Return(services.ErrAlreadyBanned)

	req, _ := http.NewRequest(http.MethodPut, "/v1/admin/users/"+userID.Hex()+"/ban", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockUserSvc.AssertExpectations(t)
}
