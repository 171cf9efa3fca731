package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/handler/appointment"
	"github.com/jwalitptl/clinic-api/internal/handler/audit"
	"github.com/jwalitptl/clinic-api/internal/handler/auth"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	"github.com/jwalitptl/clinic-api/internal/handler/inventory"
	"github.com/jwalitptl/clinic-api/internal/handler/patient"
	"github.com/jwalitptl/clinic-api/internal/handler/schedule"
	"github.com/jwalitptl/clinic-api/internal/handler/user"
	"github.com/jwalitptl/clinic-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers groups every HTTP surface of the service.
type Handlers struct {
	Auth        *auth.Handler
	Appointment *appointment.Handler
	Schedule    *schedule.Handler
	Patient     *patient.Handler
	User        *user.Handler
	Audit       *audit.Handler
	Inventory   *inventory.Handler
	Health      *health.Handler
}

func (h Handlers) api() []Handler {
	return []Handler{h.Health, h.Auth, h.Appointment, h.Schedule, h.Patient, h.User, h.Audit, h.Inventory}
}

type RouterConfig struct {
	Registerer     prometheus.Registerer
	MetricsPrefix  string
	RateLimit      float64
	RateBurst      int
	AllowedOrigins []string
	RequestTimeout time.Duration
	StaticDir      string
	Production     bool
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	config   RouterConfig
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config RouterConfig) *Router {
	if config.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.MetricsPrefix == "" {
		config.MetricsPrefix = "clinic"
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.NewRegistry()
	}

	engine := gin.New()
	metrics := initRouterMetrics(config.MetricsPrefix)
	config.Registerer.MustRegister(metrics.requestDuration, metrics.requestTotal, metrics.errorTotal)

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		config:   config,
		metrics:  metrics,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
	)
	if config.RequestTimeout > 0 {
		engine.Use(middleware.Timeout(config.RequestTimeout))
	}
	engine.Use(
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig(config.Production)),
		middleware.CORS(middleware.DefaultCORSConfig(config.AllowedOrigins)),
		middleware.SizeLimit(middleware.DefaultMaxBodySize),
	)
	if config.RateLimit > 0 {
		engine.Use(middleware.NewRateLimiter(config.RateLimit, config.RateBurst).Middleware())
	}
	engine.Use(auth.Authenticate())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")
	api.Use(middleware.NoStore(), func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})
	for _, h := range r.handlers.api() {
		h.RegisterRoutes(api)
	}

	// The static pages post to and probe these paths directly.
	root := r.engine.Group("")
	r.handlers.Auth.RegisterRoutes(root)
	r.handlers.Appointment.RegisterFormRoutes(root)

	r.setupStatic()
}

func (r *Router) setupStatic() {
	var files http.Handler
	if r.config.StaticDir != "" {
		files = http.FileServer(gin.Dir(r.config.StaticDir, false))
	}
	r.engine.NoRoute(func(c *gin.Context) {
		method := c.Request.Method
		if files == nil || strings.HasPrefix(c.Request.URL.Path, "/api/") || (method != http.MethodGet && method != http.MethodHead) {
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("route not found"))
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	})
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= http.StatusInternalServerError {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "server").Inc()
		} else if c.Writer.Status() >= http.StatusBadRequest {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "client").Inc()
		}
	}
}
