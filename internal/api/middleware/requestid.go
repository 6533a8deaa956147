package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tphuong3108/timnhatro-BE/internal/logger"
)

// HeaderRequestID carries the request id between client and server.
const HeaderRequestID = "X-Request-ID"

// RequestIDMiddleware assigns every request an id, echoes it in the
// response and logs the request with it.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(HeaderRequestID, requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()

		logger.Log.WithFields(map[string]interface{}{
			"requestId": requestID,
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
		}).Info("request handled")
	}
}
