package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tphuong3108/timnhatro-BE/internal/logger"
	"github.com/tphuong3108/timnhatro-BE/internal/services"
)

// respondError maps a service failure onto an HTTP status. Domain errors
// carry their kind; anything else is a 500 with the detail kept out of
// the response body.
func respondError(c *gin.Context, err error) {
	switch services.KindOf(err) {
	case services.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case services.KindUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case services.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case services.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case services.KindInvalidState:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		logger.Log.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
