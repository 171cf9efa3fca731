package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/handler"
)

// RateLimiter keeps one token bucket per client IP. Idle buckets expire
// from the cache.
type RateLimiter struct {
	clients *cache.Cache
	limit   rate.Limit
	burst   int
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	idle := 3 * time.Minute
	if rps > 0 {
		// Never forget a client before its bucket would have refilled.
		if refill := time.Duration(float64(burst) / rps * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	return &RateLimiter{
		clients: cache.New(idle, time.Minute),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	if v, ok := rl.clients.Get(key); ok {
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	if err := rl.clients.Add(key, l, cache.DefaultExpiration); err != nil {
		// Lost the race to another request from the same client.
		if v, ok := rl.clients.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

// Allow reports whether key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.get(key).Allow()
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		retry := 1
		if rl.limit > 0 {
			retry = int(math.Ceil(1 / float64(rl.limit)))
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, handler.NewErrorResponse("rate limit exceeded"))
	}
}
