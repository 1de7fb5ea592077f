package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"todoshare/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags the request context logger with an id, taken from the
// incoming header when present, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// Recovery is the catch-all boundary: a panic in any handler is logged with
// its stack and answered with a retryable 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error(c.Request.Context(), "Unhandled panic",
			"panic", fmt.Sprint(recovered),
			"path", c.FullPath(),
			"stack", string(debug.Stack()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "Something went wrong",
			"retry": true,
		})
	})
}
