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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/worker"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

func setupHealthCheck(port int, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/health/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Health check server failed")
			os.Exit(1)
		}
	}()
	return srv
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if !cfg.Redis.Enabled() {
		log.Fatal().Msg("The notification worker needs redis.url; without Redis the API notifies in-process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := redis.NewClient(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer client.Close()
	broker := redis.NewRedisBroker(client, log.Logger)
	defer broker.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(cfg.Metrics.Namespace)
	m.MustRegister(reg)

	health := setupHealthCheck(cfg.Worker.HealthPort, reg)

	if err := worker.NewNotifier(email.NewSender(cfg.SMTP), m).Run(ctx, broker); err != nil {
		log.Error().Err(err).Msg("Notification worker stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = health.Shutdown(shutdownCtx)
	log.Info().Msg("Worker exited")
}
