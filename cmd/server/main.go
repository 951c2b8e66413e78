// Package main runs the AFL fantasy platform API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	app "github.com/afl-fantasy/platform/internal/app"
	"github.com/afl-fantasy/platform/internal/app/httpapi"
	"github.com/afl-fantasy/platform/internal/app/metrics"
	"github.com/afl-fantasy/platform/internal/app/storage/postgres"
	"github.com/afl-fantasy/platform/internal/cache"
	"github.com/afl-fantasy/platform/internal/config"
	"github.com/afl-fantasy/platform/internal/logging"
	"github.com/afl-fantasy/platform/internal/middleware"
	"github.com/afl-fantasy/platform/internal/platform/database"
	"github.com/afl-fantasy/platform/internal/platform/migrations"
)

const version = "3.4.4"

func main() {
	log := logging.NewDefault("server")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}
	features := config.LoadFeaturesOrDefault(os.Getenv("FEATURES_FILE"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := make(map[string]httpapi.Checker)

	var stores app.Stores
	if cfg.Database.DSN != "" {
		db, err := database.Open(ctx, cfg.Database.DSN, database.Options{
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			ConnLifetime: cfg.Database.ConnLifetime,
		})
		if err != nil {
			log.WithError(err).Fatal("open database")
		}
		defer db.Close()

		if err := migrations.Apply(ctx, db.DB); err != nil {
			log.WithError(err).Fatal("apply migrations")
		}

		pg := postgres.New(db)
		stores = app.Stores{
			Players:     pg,
			Fixtures:    pg,
			Projections: pg,
			Squads:      pg,
			Users:       pg,
		}
		checks["database"] = func(ctx context.Context) error { return db.PingContext(ctx) }
		log.Info("postgres storage attached")
	} else {
		log.Warn("DATABASE_URL not set; using in-memory storage")
	}

	var appCache cache.Cache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedis(cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		defer redisCache.Close()
		appCache = redisCache
		checks["redis"] = redisCache.Ping
		log.Info("redis cache attached")
	}

	opts := app.Options{
		Cache:        appCache,
		JWTSecret:    cfg.Auth.JWTSecret,
		TokenTTL:     cfg.Auth.TokenTTL,
		SyncSchedule: cfg.Ingest.SyncSchedule,
		LiveScores:   features.Enabled("live-scores"),
	}
	if features.Enabled("ingest") {
		opts.FeedURL = cfg.Ingest.FeedURL
		opts.FeedAPIKey = cfg.Ingest.FeedAPIKey
		opts.RefreshInterval = cfg.Ingest.RefreshInterval
	}

	application, err := app.New(stores, opts, log)
	if err != nil {
		log.WithError(err).Fatal("build application")
	}
	if err := application.Start(ctx); err != nil {
		log.WithError(err).Fatal("start application")
	}

	router := httpapi.NewHandler(application, httpapi.Options{
		Version: version,
		Checks:  checks,
	})
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	auth := middleware.NewAuthMiddleware(application.Users, log, httpapi.SkipAuthPaths())
	cors := middleware.NewCORSMiddleware(strings.Split(cfg.HTTP.AllowedOrigins, ","))
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
	limiter.StartCleanup(ctx, 10*time.Minute)

	var handler http.Handler = router
	handler = auth.Handler(handler)
	handler = limiter.Handler(handler)
	handler = metrics.InstrumentHandler(handler)
	handler = middleware.LoggingMiddleware(log)(handler)
	handler = cors.Handler(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.WithField("port", cfg.HTTP.Port).Info("api server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("application shutdown")
	}
	log.Info("server stopped")
}
