package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tphuong3108/timnhatro-BE/internal/api/handlers"
	"github.com/tphuong3108/timnhatro-BE/internal/models"
	"github.com/tphuong3108/timnhatro-BE/internal/services"
)

func TestCreateReview(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockReviewSvc := new(MockReviewService)
	handler := handlers.NewRestReviewHandler(mockReviewSvc)
	user := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleTenant}
	roomID := primitive.NewObjectID()

	r := gin.New()
	r.POST("/v1/rooms/:id/reviews", asActor(user), handler.CreateReview)

	created := &models.Review{ID: primitive.NewObjectID(), RoomID: roomID, UserID: user.UserID, Rating: 4}
	mockReviewSvc.On("CreateReview", mock.Anything, user.UserID, roomID,
		services.CreateReviewRequest{Rating: 4, Comment: "clean"}).Return(created, nil)

	payload := []byte(`{"rating":4,"comment":"clean"}`)
	req, _ := http.NewRequest(http.MethodPost, "/v1/rooms/"+roomID.Hex()+"/reviews", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockReviewSvc.AssertExpectations(t)
}

func TestCreateReview_DuplicateMapsTo409(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockReviewSvc := new(MockReviewService)
	handler := handlers.NewRestReviewHandler(mockReviewSvc)
	user := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleTenant}
	roomID := primitive.NewObjectID()

	r := gin.New()
	r.POST("/v1/rooms/:id/reviews", asActor(user), handler.CreateReview)

	mockReviewSvc.On("CreateReview", mock.Anything, user.UserID, roomID, mock.Anything).
		Return(nil, services.ErrAlreadyReviewed)

	payload := []byte(`{"rating":5}`)
	req, _ := http.NewRequest(http.MethodPost, "/v1/rooms/"+roomID.Hex()+"/reviews", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockReviewSvc.AssertExpectations(t)
}

func TestListRoomReviews(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockReviewSvc := new(MockReviewService)
	handler := handlers.NewRestReviewHandler(mockReviewSvc)
	roomID := primitive.NewObjectID()

	r := gin.New()
	r.GET("/v1/rooms/:id/reviews", handler.ListRoomReviews)

	reviews := []models.Review{{ID: primitive.NewObjectID(), RoomID: roomID, Rating: 5}}
	pagination := &services.Pagination{Page: 2, Limit: 5, Total: 6, TotalPages: 2}
	mockReviewSvc.On("ListRoomReviews", mock.Anything, roomID, 2, 5).
		Return(reviews, pagination, nil)

	req, _ := http.NewRequest(http.MethodGet, "/v1/rooms/"+roomID.Hex()+"/reviews?page=2&limit=5", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockReviewSvc.AssertExpectations(t)
}

func TestUpdateReview_HiddenMapsTo422(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockReviewSvc := new(MockReviewService)
	handler := handlers.NewRestReviewHandler(mockReviewSvc)
	user := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleTenant}
	reviewID := primitive.NewObjectID()

	r := gin.New()
	r.PATCH("/v1/reviews/:id", asActor(user), handler.UpdateReview)

	mockReviewSvc.On("UpdateReview", mock.Anything, user.UserID, reviewID, mock.Anything).
		Return(nil, services.ErrReviewHidden)

	payload := []byte(`{"comment":"edited"}`)
	req, _ := http.NewRequest(http.MethodPatch, "/v1/reviews/"+reviewID.Hex(), bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	mockReviewSvc.AssertExpectations(t)
}

func TestDeleteReview_ForbiddenMapsTo403(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockReviewSvc := new(MockReviewService)
	handler := handlers.NewRestReviewHandler(mockReviewSvc)
	stranger := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleTenant}
	reviewID := primitive.NewObjectID()

	r := gin.New()
	r.DELETE("/v1/reviews/:id", asActor(stranger), handler.DeleteReview)

	mockReviewSvc.On("DeleteReview", mock.Anything, stranger, reviewID).
		Return(services.ErrForbidden)

	req, _ := http.NewRequest(http.MethodDelete, "/v1/reviews/"+reviewID.Hex(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockReviewSvc.AssertExpectations(t)
}

func TestReviewToggleLike(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockReviewSvc := new(MockReviewService)
	handler := handlers.NewRestReviewHandler(mockReviewSvc)
	user := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleTenant}
	reviewID := primitive.NewObjectID()

	r := gin.New()
	r.POST("/v1/reviews/:id/like", asActor(user), handler.ToggleLike)

	mockReviewSvc.On("ToggleLike", mock.Anything, reviewID, user.UserID).Return(false, nil)

	req, _ := http.NewRequest(http.MethodPost, "/v1/reviews/"+reviewID.Hex()+"/like", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"liked":false}`, w.Body.String())
	mockReviewSvc.AssertExpectations(t)
}

func TestReportReview_BadID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockReviewSvc := new(MockReviewService)
	handler := handlers.NewRestReviewHandler(mockReviewSvc)
	user := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleTenant}

	r := gin.New()
	r.POST("/v1/reviews/:id/report", asActor(user), handler.ReportReview)

	req, _ := http.NewRequest(http.MethodPost, "/v1/reviews/oops/report", bytes.NewReader([]byte(`{"reason":"spam"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockReviewSvc.AssertNotCalled(t, "ReportReview")
}
