package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tphuong3108/timnhatro-BE/internal/api/middleware"
	"github.com/tphuong3108/timnhatro-BE/internal/services"
	"github.com/tphuong3108/timnhatro-BE/internal/tasks"
)

// RestAdminHandler handles the admin moderation and dashboard routes.
// All routes assume AdminMiddleware ran.
type RestAdminHandler struct {
	roomService       services.IRoomService
	reviewService     services.IReviewService
	moderationService services.IModerationService
	statsService      services.IStatsService
	userService       services.IUserService
	taskClient        *asynq.Client
	rdb               *redis.Client
}

// NewRestAdminHandler creates a new RestAdminHandler. taskClient may be
// nil when no background worker is deployed; the async sweep route then
// reports the capability missing.
func NewRestAdminHandler(
	roomService services.IRoomService,
	reviewService services.IReviewService,
	moderationService services.IModerationService,
	statsService services.IStatsService,
	userService services.IUserService,
	taskClient *asynq.Client,
	rdb *redis.Client,
) *RestAdminHandler {
	return &RestAdminHandler{
		roomService:       roomService,
		reviewService:     reviewService,
		moderationService: moderationService,
		statsService:      statsService,
		userService:       userService,
		taskClient:        taskClient,
		rdb:               rdb,
	}
}

// ApproveRoom handles PUT /v1/admin/rooms/:id/approve
func (h *RestAdminHandler) ApproveRoom(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	roomID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID format"})
		return
	}

	room, err := h.roomService.ApproveRoom(c.Request.Context(), actor.UserID, roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// GetRoom handles GET /v1/admin/rooms/:id
func (h *RestAdminHandler) GetRoom(c *gin.Context) {
	roomID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID format"})
		return
	}
	room, err := h.roomService.GetAdminRoomDetails(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// ListRooms handles GET /v1/admin/rooms
func (h *RestAdminHandler) ListRooms(c *gin.Context) {
	rooms, pagination, err := h.roomService.ListAllRooms(c.Request.Context(), listQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms, "pagination": pagination})
}

// HideReview handles PUT /v1/admin/reviews/:id/hide
func (h *RestAdminHandler) HideReview(c *gin.Context) {
	reviewID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID format"})
		return
	}
	review, err := h.reviewService.HideReview(c.Request.Context(), reviewID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// UnhideReview handles PUT /v1/admin/reviews/:id/unhide
func (h *RestAdminHandler) UnhideReview(c *gin.Context) {
	reviewID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID format"})
		return
	}
	review, err := h.reviewService.UnhideReview(c.Request.Context(), reviewID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// ListReviews handles GET /v1/admin/reviews
func (h *RestAdminHandler) ListReviews(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	reviews, pagination, err := h.reviewService.AdminListReviews(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reviews, "pagination": pagination})
}

// RunSweep handles POST /v1/admin/moderation/sweep. The sweep runs
// synchronously and the summary comes back in the response. Passing
// ?async=true enqueues it on the background worker instead and returns
// the task id to poll the result with.
func (h *RestAdminHandler) RunSweep(c *gin.Context) {
	if c.Query("async") == "true" {
		if h.taskClient == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Background worker not available"})
			return
		}
		taskID, err := tasks.EnqueueSweep(c.Request.Context(), h.taskClient)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"taskId": taskID})
		return
	}

	summary, err := h.moderationService.RunEnforcementSweep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetSweepResult handles GET /v1/admin/moderation/sweep/:taskId
func (h *RestAdminHandler) GetSweepResult(c *gin.Context) {
	summary, found, err := tasks.GetSweepResult(c.Request.Context(), h.rdb, c.Param("taskId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sweep result not available"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetReportStats handles GET /v1/admin/reports
func (h *RestAdminHandler) GetReportStats(c *gin.Context) {
	stats, err := h.moderationService.GetReportStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetPopularRooms handles GET /v1/admin/stats/popular-rooms
func (h *RestAdminHandler) GetPopularRooms(c *gin.Context) {
	rooms, err := h.statsService.PopularRooms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms})
}

// GetTopViewedRooms handles GET /v1/admin/stats/top-viewed
func (h *RestAdminHandler) GetTopViewedRooms(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "6"))
	rooms, err := h.statsService.TopViewedRooms(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms})
}

// GetTopHosts handles GET /v1/admin/stats/top-hosts
func (h *RestAdminHandler) GetTopHosts(c *gin.Context) {
	hosts, err := h.statsService.TopHosts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": hosts})
}

// GetWeeklyOverview handles GET /v1/admin/stats/weekly
func (h *RestAdminHandler) GetWeeklyOverview(c *gin.Context) {
	overview, err := h.statsService.GetWeeklyOverview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// BanUser handles PUT /v1/admin/users/:id/ban
func (h *RestAdminHandler) BanUser(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}
	if err := h.userService.BanUser(c.Request.Context(), actor, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
