package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
)

const DefaultMaxBodySize = 1 << 20

// SizeLimit rejects bodies over max bytes. Declared lengths are refused
// up front; chunked bodies are cut off while reading.
func SizeLimit(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > max {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				handler.NewErrorResponse(fmt.Sprintf("request body exceeds %d bytes", max)))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		c.Next()
	}
}
