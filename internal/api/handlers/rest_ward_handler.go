package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tphuong3108/timnhatro-BE/internal/services"
)

// RestWardHandler serves the ward and amenity lookup tables search and
// room creation build on.
type RestWardHandler struct {
	wardService    services.IWardService
	amenityService services.IAmenityService
}

// NewRestWardHandler creates a new RestWardHandler.
func NewRestWardHandler(wardService services.IWardService, amenityService services.IAmenityService) *RestWardHandler {
	return &RestWardHandler{wardService: wardService, amenityService: amenityService}
}

// ListWards handles GET /v1/wards
func (h *RestWardHandler) ListWards(c *gin.Context) {
	wards, err := h.wardService.ListWards(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": wards})
}

// ListAmenities handles GET /v1/amenities
func (h *RestWardHandler) ListAmenities(c *gin.Context) {
	amenities, err := h.amenityService.ListAmenities(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": amenities})
}
