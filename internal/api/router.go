package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tphuong3108/timnhatro-BE/internal/api/handlers"
	"github.com/tphuong3108/timnhatro-BE/internal/api/middleware"
	"github.com/tphuong3108/timnhatro-BE/internal/config"
	"github.com/tphuong3108/timnhatro-BE/internal/services"
)

// SetupRouter configures and returns the main Gin engine. taskClient may
// be nil in API-only deployments without a background worker.
func SetupRouter(cfg *config.Config, database *mongo.Database, rdb *redis.Client, taskClient *asynq.Client) *gin.Engine {
	// Initialize services needed by API handlers here.
	ratingService := services.NewRatingService(database)
	roomService := services.NewRoomService(database, rdb, cfg)
	reviewService := services.NewReviewService(database, cfg, ratingService)
	moderationService := services.NewModerationService(database, cfg, ratingService)
	statsService := services.NewStatsService(database, cfg)
	userService := services.NewUserService(database)
	wardService := services.NewWardService(database)
	amenityService := services.NewAmenityService(database)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	roomHandler := handlers.NewRestRoomHandler(roomService)
	reviewHandler := handlers.NewRestReviewHandler(reviewService)
	adminHandler := handlers.NewRestAdminHandler(
		roomService, reviewService, moderationService, statsService, userService, taskClient, rdb)
	userHandler := handlers.NewRestUserHandler(userService, cfg)
	wardHandler := handlers.NewRestWardHandler(wardService, amenityService)

	v1 := r.Group("/v1")
	{
		// Public routes
		v1.GET("/rooms", roomHandler.ListRooms)
		v1.GET("/rooms/search", roomHandler.SearchRooms)
		v1.GET("/rooms/nearby", roomHandler.NearbyRooms)
		v1.GET("/rooms/hot", roomHandler.HotRooms)
		v1.GET("/rooms/:id", roomHandler.GetRoomDetails)
		v1.GET("/rooms/:id/reviews", reviewHandler.ListRoomReviews)

		v1.GET("/wards", wardHandler.ListWards)
		v1.GET("/amenities", wardHandler.ListAmenities)

		v1.POST("/users", userHandler.Register)
		v1.POST("/users/login", userHandler.Login)
		v1.GET("/users/:id", userHandler.GetUserByID)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Authenticated routes
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.POST("/rooms", roomHandler.CreateRoom)
			authRequired.GET("/rooms/mine", roomHandler.ListMyRooms)
			authRequired.GET("/rooms/favorites", roomHandler.ListFavorites)
			authRequired.PATCH("/rooms/:id", roomHandler.EditRoom)
			authRequired.DELETE("/rooms/:id", roomHandler.DeleteRoom)
			authRequired.PUT("/rooms/:id/availability", roomHandler.SetAvailability)
			authRequired.POST("/rooms/:id/like", roomHandler.ToggleLike)
			authRequired.POST("/rooms/:id/favorite", roomHandler.AddFavorite)
			authRequired.DELETE("/rooms/:id/favorite", roomHandler.RemoveFavorite)
			authRequired.POST("/rooms/:id/report", roomHandler.ReportRoom)

			authRequired.POST("/rooms/:id/reviews", reviewHandler.CreateReview)
			authRequired.PATCH("/reviews/:id", reviewHandler.UpdateReview)
			authRequired.DELETE("/reviews/:id", reviewHandler.DeleteReview)
			authRequired.POST("/reviews/:id/like", reviewHandler.ToggleLike)
			authRequired.POST("/reviews/:id/report", reviewHandler.ReportReview)
		}

		// Admin routes
		adminRequired := v1.Group("/admin")
		adminRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.AdminMiddleware())
		{
			adminRequired.GET("/rooms", adminHandler.ListRooms)
			adminRequired.GET("/rooms/:id", adminHandler.GetRoom)
			adminRequired.PUT("/rooms/:id/approve", adminHandler.ApproveRoom)

			adminRequired.GET("/reviews", adminHandler.ListReviews)
			adminRequired.PUT("/reviews/:id/hide", adminHandler.HideReview)
			adminRequired.PUT("/reviews/:id/unhide", adminHandler.UnhideReview)

			adminRequired.POST("/moderation/sweep", adminHandler.RunSweep)
			adminRequired.GET("/moderation/sweep/:taskId", adminHandler.GetSweepResult)
			adminRequired.GET("/reports", adminHandler.GetReportStats)

			adminRequired.GET("/stats/popular-rooms", adminHandler.GetPopularRooms)
			adminRequired.GET("/stats/top-viewed", adminHandler.GetTopViewedRooms)
			adminRequired.GET("/stats/top-hosts", adminHandler.GetTopHosts)
			adminRequired.GET("/stats/weekly", adminHandler.GetWeeklyOverview)

			adminRequired.PUT("/users/:id/ban", adminHandler.BanUser)
		}
	}

	return r
}
