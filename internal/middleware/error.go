package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/handler"
)

// ErrorHandler renders errors attached with c.Error when the handler did
// not write a response itself.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		for _, e := range c.Errors {
			log.Debug().
				Err(e.Err).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("path", c.Request.URL.Path).
				Msg("Request error")
		}
		if c.Writer.Written() {
			return
		}
		status, body := handler.ErrorBody(c.Errors.Last().Err)
		c.JSON(status, body)
	}
}
