package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/petstore/backend/internal/interfaces/http/dto"
)

// DefaultBodyLimit is 1 MiB, plenty for an order with a few hundred lines
const DefaultBodyLimit int64 = 1 << 20

// BodyLimit rejects requests whose declared size exceeds maxBytes with 413.
// Chunked bodies are wrapped so reading past the limit fails during binding.
// A non-positive maxBytes falls back to DefaultBodyLimit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultBodyLimit
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			resp := dto.NewErrorResponse("REQUEST_TOO_LARGE", "Request body exceeds maximum allowed size", GetRequestID(c))
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp)
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
