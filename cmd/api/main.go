package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/email"
	appointmentHandler "github.com/jwalitptl/clinic-api/internal/handler/appointment"
	auditHandler "github.com/jwalitptl/clinic-api/internal/handler/audit"
	authHandler "github.com/jwalitptl/clinic-api/internal/handler/auth"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	inventoryHandler "github.com/jwalitptl/clinic-api/internal/handler/inventory"
	patientHandler "github.com/jwalitptl/clinic-api/internal/handler/patient"
	"github.com/jwalitptl/clinic-api/internal/handler/schedule"
	userHandler "github.com/jwalitptl/clinic-api/internal/handler/user"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/router"
	auditService "github.com/jwalitptl/clinic-api/internal/service/audit"
	authService "github.com/jwalitptl/clinic-api/internal/service/auth"
	"github.com/jwalitptl/clinic-api/internal/service/booking"
	inventoryService "github.com/jwalitptl/clinic-api/internal/service/inventory"
	"github.com/jwalitptl/clinic-api/internal/service/notification"
	patientService "github.com/jwalitptl/clinic-api/internal/service/patient"
	userService "github.com/jwalitptl/clinic-api/internal/service/user"
	"github.com/jwalitptl/clinic-api/internal/session"
	"github.com/jwalitptl/clinic-api/internal/worker"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	validator.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open data store")
	}
	defer closeStore()

	var redisClient *goredis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.NewClient(ctx, redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer redisClient.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(cfg.Metrics.Namespace)
	m.MustRegister(reg)

	// Without Redis the notifier runs in-process on a memory broker.
	var broker messaging.Broker
	if redisClient != nil {
		broker = redis.NewRedisBroker(redisClient, log.Logger)
	} else {
		mem := messaging.NewMemoryBroker()
		broker = mem
		done, err := worker.NewNotifier(email.NewSender(cfg.SMTP), m).Start(ctx, mem)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start in-process notifier")
		}
		go func() {
			if err := <-done; err != nil {
				log.Error().Err(err).Msg("In-process notifier stopped")
			}
		}()
	}
	defer broker.Close()

	var sessions session.Store
	if cfg.Session.Store == "redis" {
		sessions = session.NewRedisStore(redisClient)
	} else {
		sessions = session.NewMemoryStore(10 * time.Minute)
	}

	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)
	auditSvc := auditService.NewService(store.AuditLogs)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry)
	authSvc := authService.NewService(store.Users, jwtSvc, sessions, hasher, auditSvc, cfg.Session.TTL)
	userSvc := userService.NewService(store.Users, store.Doctors, hasher, auditSvc)
	bookingSvc := booking.NewService(store, auditSvc, notification.NewService(broker), m, booking.Config{
		AllowPastDates:  cfg.Booking.AllowPastDates,
		EnforceTemplate: cfg.Booking.EnforceTemplate,
	})
	patientSvc := patientService.NewService(store.Users, store.PatientRecords, auditSvc)
	inventorySvc := inventoryService.NewService(store.Inventory, store.Financial)

	var loginLimit, rateLimit float64
	if cfg.RateLimit.Enabled {
		loginLimit, rateLimit = cfg.RateLimit.LoginRate, cfg.RateLimit.Rate
	}
	var limitLogin gin.HandlerFunc
	if loginLimit > 0 {
		limitLogin = middleware.NewRateLimiter(loginLimit, cfg.RateLimit.LoginBurst).Middleware()
	}

	r := router.NewRouter(middleware.NewAuthMiddleware(authSvc, cfg.Session.CookieName), router.Handlers{
		Auth: authHandler.NewHandler(authSvc, userSvc, authHandler.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.Secure,
		}, limitLogin),
		Appointment: appointmentHandler.NewHandler(bookingSvc),
		Schedule:    schedule.NewHandler(bookingSvc),
		Patient:     patientHandler.NewHandler(patientSvc),
		User:        userHandler.NewHandler(userSvc),
		Audit:       auditHandler.NewHandler(auditSvc),
		Inventory:   inventoryHandler.NewHandler(inventorySvc),
		Health:      health.NewHandler(store.Ping, reg),
	}, router.RouterConfig{
		Registerer:     reg,
		MetricsPrefix:  cfg.Metrics.Namespace + "_http",
		RateLimit:      rateLimit,
		RateBurst:      cfg.RateLimit.Burst,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		StaticDir:      cfg.Server.StaticDir,
		Production:     cfg.IsProduction(),
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("driver", cfg.Database.Driver).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited properly")
}

func openStore(cfg config.DatabaseConfig) (*repository.Store, func(), error) {
	if cfg.Driver == "memory" {
		log.Warn().Msg("Using in-memory store, data is lost on restart")
		return memory.New(), func() {}, nil
	}
	db, err := postgres.NewDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewStore(db), func() { db.Close() }, nil
}
