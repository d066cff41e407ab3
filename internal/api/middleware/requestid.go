package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/cobaltriver/chatkit-gateway/internal/shared/id"
)

// RequestIDHeader carries the request id across service boundaries.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID attaches a request id to every request, honoring one supplied
// by the caller and minting one otherwise. The id is echoed on the
// response so clients can quote it when reporting failures.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = id.NewRequestID().String()
		}

		c.Set(requestIDKey, rid)
		c.Header(RequestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFromContext returns the request id attached by RequestID, or
// an empty string outside its scope.
func RequestIDFromContext(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if rid, ok := v.(string); ok {
			return rid
		}
	}
	return ""
}
