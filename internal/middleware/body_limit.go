package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lecturelink/backend/pkg/response"
)

// BodyLimit caps the request body size. Requests declaring a larger body are
// rejected up front; chunked bodies are cut off by MaxBytesReader while the
// handler reads them.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			if c.Request.ContentLength > maxBytes {
				response.PayloadTooLarge(c, "request body too large")
				c.Abort()
				return
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
