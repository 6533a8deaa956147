package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tphuong3108/timnhatro-BE/internal/api/middleware"
	"github.com/tphuong3108/timnhatro-BE/internal/models"
	"github.com/tphuong3108/timnhatro-BE/internal/services"
)

// RestRoomHandler handles REST requests for rooms.
type RestRoomHandler struct {
	roomService services.IRoomService
}

// NewRestRoomHandler creates a new RestRoomHandler.
func NewRestRoomHandler(roomService services.IRoomService) *RestRoomHandler {
	return &RestRoomHandler{roomService: roomService}
}

type createRoomBody struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" binding:"required"`
	Amenities   []string `json:"amenities"`
	Address     string   `json:"address" binding:"required"`
	Ward        string   `json:"ward" binding:"required"`
	Longitude   *float64 `json:"longitude"`
	Latitude    *float64 `json:"latitude"`
	Images      []string `json:"images"`
	Videos      []string `json:"videos"`
	VerifierID  string   `json:"verifierId"`
}

func parseObjectIDs(hexes []string) ([]primitive.ObjectID, bool) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// CreateRoom handles POST /v1/rooms
func (h *RestRoomHandler) CreateRoom(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var body createRoomBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	wardID, err := primitive.ObjectIDFromHex(body.Ward)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ward ID format"})
		return
	}
	amenityIDs, ok := parseObjectIDs(body.Amenities)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amenity ID format"})
		return
	}

	req := services.CreateRoomRequest{
		Name:        body.Name,
		Description: body.Description,
		Price:       body.Price,
		Amenities:   amenityIDs,
		Address:     body.Address,
		Ward:        wardID,
		Longitude:   body.Longitude,
		Latitude:    body.Latitude,
		Images:      body.Images,
		Videos:      body.Videos,
	}
	if body.VerifierID != "" {
		verifierID, idErr := primitive.ObjectIDFromHex(body.VerifierID)
		if idErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid verifier ID format"})
			return
		}
		req.VerifierID = &verifierID
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// GetRoomDetails handles GET /v1/rooms/:id. The parameter accepts a hex
// id or a slug.
func (h *RestRoomHandler) GetRoomDetails(c *gin.Context) {
	room, reviews, err := h.roomService.GetRoomDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "reviews": reviews})
}

func listQuery(c *gin.Context) services.ListRoomsQuery {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	return services.ListRoomsQuery{
		Page:      page,
		Limit:     limit,
		SortBy:    c.DefaultQuery("sortBy", "latest"),
		SortOrder: c.DefaultQuery("order", "desc"),
	}
}

// ListRooms handles GET /v1/rooms
func (h *RestRoomHandler) ListRooms(c *gin.Context) {
	rooms, pagination, err := h.roomService.ListApprovedRooms(c.Request.Context(), listQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms, "pagination": pagination})
}

// ListMyRooms handles GET /v1/rooms/mine
func (h *RestRoomHandler) ListMyRooms(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	rooms, pagination, err := h.roomService.ListHostRooms(c.Request.Context(), actor.UserID, listQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms, "pagination": pagination})
}

type editRoomBody struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Amenities   *[]string `json:"amenities"`
	Address     *string   `json:"address"`
	Ward        *string   `json:"ward"`
	Longitude   *float64  `json:"longitude"`
	Latitude    *float64  `json:"latitude"`
	Images      *[]string `json:"images"`
	Videos      *[]string `json:"videos"`
}

// EditRoom handles PATCH /v1/rooms/:id
func (h *RestRoomHandler) EditRoom(c *gin.Context) {
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

	var body editRoomBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req := services.EditRoomRequest{
		Name:        body.Name,
		Description: body.Description,
		Price:       body.Price,
		Address:     body.Address,
		Longitude:   body.Longitude,
		Latitude:    body.Latitude,
		Images:      body.Images,
		Videos:      body.Videos,
	}
	if body.Ward != nil {
		wardID, idErr := primitive.ObjectIDFromHex(*body.Ward)
		if idErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ward ID format"})
			return
		}
		req.Ward = &wardID
	}
	if body.Amenities != nil {
		amenityIDs, idsOK := parseObjectIDs(*body.Amenities)
		if !idsOK {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amenity ID format"})
			return
		}
		req.Amenities = &amenityIDs
	}

	room, err := h.roomService.EditRoom(c.Request.Context(), actor, roomID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// DeleteRoom handles DELETE /v1/rooms/:id
func (h *RestRoomHandler) DeleteRoom(c *gin.Context) {
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
	if err := h.roomService.SoftDeleteRoom(c.Request.Context(), actor, roomID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetAvailability handles PUT /v1/rooms/:id/availability
func (h *RestRoomHandler) SetAvailability(c *gin.Context) {
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

	var body struct {
		Availability string `json:"availability" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	err = h.roomService.SetAvailability(c.Request.Context(), actor, roomID, models.Availability(body.Availability))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ToggleLike handles POST /v1/rooms/:id/like
func (h *RestRoomHandler) ToggleLike(c *gin.Context) {
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

	liked, err := h.roomService.ToggleLike(c.Request.Context(), roomID, actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// AddFavorite handles POST /v1/rooms/:id/favorite
func (h *RestRoomHandler) AddFavorite(c *gin.Context) {
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
	if err := h.roomService.AddFavorite(c.Request.Context(), roomID, actor.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RemoveFavorite handles DELETE /v1/rooms/:id/favorite
func (h *RestRoomHandler) RemoveFavorite(c *gin.Context) {
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
	if err := h.roomService.RemoveFavorite(c.Request.Context(), roomID, actor.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListFavorites handles GET /v1/rooms/favorites
func (h *RestRoomHandler) ListFavorites(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	rooms, err := h.roomService.ListFavoriteRooms(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms})
}

// ReportRoom handles POST /v1/rooms/:id/report
func (h *RestRoomHandler) ReportRoom(c *gin.Context) {
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

	var body struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reason is required"})
		return
	}

	if err := h.roomService.ReportRoom(c.Request.Context(), roomID, actor.UserID, body.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SearchRooms handles GET /v1/rooms/search
func (h *RestRoomHandler) SearchRooms(c *gin.Context) {
	filter := services.SearchFilter{
		Name:    c.Query("name"),
		Amenity: c.Query("amenity"),
		Address: c.Query("address"),
	}
	if wardHex := c.Query("ward"); wardHex != "" {
		wardID, err := primitive.ObjectIDFromHex(wardHex)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ward ID format"})
			return
		}
		filter.Ward = &wardID
	}
	if v := c.Query("priceMin"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.PriceMin = &f
		}
	}
	if v := c.Query("priceMax"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.PriceMax = &f
		}
	}
	if v := c.Query("minRating"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinRating = &f
		}
	}
	if v := c.Query("minRatings"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.MinRatings = &n
		}
	}

	rooms, err := h.roomService.SearchRooms(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms})
}

// NearbyRooms handles GET /v1/rooms/nearby
func (h *RestRoomHandler) NearbyRooms(c *gin.Context) {
	longitude, lonErr := strconv.ParseFloat(c.Query("longitude"), 64)
	latitude, latErr := strconv.ParseFloat(c.Query("latitude"), 64)
	if lonErr != nil || latErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "longitude and latitude are required"})
		return
	}
	maxDistance, err := strconv.Atoi(c.DefaultQuery("maxDistance", "5000"))
	if err != nil || maxDistance <= 0 {
		maxDistance = 5000
	}

	rooms, err := h.roomService.NearbyRooms(c.Request.Context(), longitude, latitude, maxDistance)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms})
}

// HotRooms handles GET /v1/rooms/hot
func (h *RestRoomHandler) HotRooms(c *gin.Context) {
	rooms, err := h.roomService.HotRooms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms})
}
