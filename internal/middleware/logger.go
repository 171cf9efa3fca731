package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger logs one line per request: info below 400, warn for client
// errors, error for server errors. Bodies are never logged.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		default:
			event = log.Info()
		}
		if p, ok := Principal(c); ok {
			event = event.Str("user_id", p.UserID.String()).Str("role", string(p.Role))
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.ByType(gin.ErrorTypePrivate).String())
		}
		event.
			Str("request_id", c.GetString(ContextRequestID)).
			Str("client_ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user_agent", c.Request.UserAgent()).
			Msg("Request processed")
	}
}
