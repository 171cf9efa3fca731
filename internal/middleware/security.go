package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

type SecurityConfig struct {
	HSTS          bool
	HSTSMaxAge    int
	FrameOptions  string
	CSPDirectives []string
}

func DefaultSecurityConfig(production bool) SecurityConfig {
	return SecurityConfig{
		HSTS:         production,
		HSTSMaxAge:   31536000,
		FrameOptions: "DENY",
		CSPDirectives: []string{
			"default-src 'self'",
			"img-src 'self' data:",
			"style-src 'self' 'unsafe-inline'",
			"frame-ancestors 'none'",
		},
	}
}

func SecurityHeaders(config SecurityConfig) gin.HandlerFunc {
	csp := strings.Join(config.CSPDirectives, "; ")
	hsts := fmt.Sprintf("max-age=%d; includeSubDomains", config.HSTSMaxAge)

	return func(c *gin.Context) {
		if config.HSTS {
			c.Header("Strict-Transport-Security", hsts)
		}
		c.Header("X-Frame-Options", config.FrameOptions)
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if csp != "" {
			c.Header("Content-Security-Policy", csp)
		}
		c.Next()
	}
}

// NoStore keeps patient data out of shared and browser caches.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
