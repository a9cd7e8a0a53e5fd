// Package main is the entry point for the ELD planner API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"googlemaps.github.io/maps"

	"github.com/pkordes/eld-planner/internal/cache"
	"github.com/pkordes/eld-planner/internal/config"
	"github.com/pkordes/eld-planner/internal/document"
	"github.com/pkordes/eld-planner/internal/events"
	"github.com/pkordes/eld-planner/internal/handler"
	"github.com/pkordes/eld-planner/internal/hos"
	"github.com/pkordes/eld-planner/internal/metrics"
	"github.com/pkordes/eld-planner/internal/middleware"
	"github.com/pkordes/eld-planner/internal/repo"
	"github.com/pkordes/eld-planner/internal/service"
	"github.com/pkordes/eld-planner/internal/upstream"
	"github.com/pkordes/eld-planner/internal/upstream/google"
	"github.com/pkordes/eld-planner/internal/upstream/ors"
	"github.com/pkordes/eld-planner/internal/upstream/osrm"
	"github.com/pkordes/eld-planner/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	m := metrics.NewCollector(logger)

	// --- Geocode cache (optional Postgres) --------------------------------
	var geocodeStore repo.GeocodeRepo
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		// Verify the DB is reachable before accepting traffic.
		if err := pool.Ping(context.Background()); err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		if err := migrate(context.Background(), pool); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("database connection established")
		geocodeStore = repo.NewGeocodeRepo(pool)
	}

	// --- Upstream ---------------------------------------------------------
	geocoder, router, err := newUpstream(cfg)
	if err != nil {
		slog.Error("failed to configure upstream services", "error", err)
		os.Exit(1)
	}
	geocoder = cache.NewGeocoder(geocoder, geocodeStore, cfg.GeocodeCacheTTL, logger)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			// The route cache degrades to pass-through, so this is not fatal.
			slog.Warn("redis unreachable at startup", "addr", cfg.RedisAddr, "error", err)
		}
		router = cache.NewRouter(router, rdb, cfg.RouteCacheTTL, logger)
	}

	// --- Events (optional NATS) -------------------------------------------
	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		np, err := events.NewNATSPublisher(cfg.NATSURL, m, logger)
		if err != nil {
			slog.Warn("nats unavailable, trip events disabled", "error", err)
		} else {
			defer np.Close()
			publisher = np
		}
	}

	// --- Planner ----------------------------------------------------------
	rules := hos.PropertyCarrying70()
	rules.AverageSpeedKmh = cfg.AverageSpeedKmh
	scheduler, err := hos.NewScheduler(rules)
	if err != nil {
		slog.Error("invalid HOS rules", "error", err)
		os.Exit(1)
	}

	docs := document.NewStore(cfg.LogTTL)
	planner := service.NewPlanner(service.Deps{
		Geocoder:        geocoder,
		Router:          router,
		Scheduler:       scheduler,
		Renderer:        document.NewPDFRenderer(docs, cfg.PublicBaseURL),
		Events:          publisher,
		Metrics:         m,
		Log:             logger,
		UpstreamTimeout: cfg.UpstreamTimeout,
		Carrier:         cfg.CarrierName,
	})

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	r.Handle("/metrics", m.Handler())
	r.Mount("/", handler.NewServer(planner, docs, logger).Handler())

	// --- HTTP Server ------------------------------------------------------
	// WriteTimeout leaves room for the upstream deadline plus PDF rendering.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "geocoder", cfg.Geocoder, "router", cfg.Router)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// newUpstream builds the configured geocoder and router.
func newUpstream(cfg config.Config) (upstream.Geocoder, upstream.Router, error) {
	var gc *google.Client
	if cfg.Geocoder == config.ProviderGoogle || cfg.Router == config.ProviderGoogle {
		c, err := google.New(cfg.GoogleMapsAPIKey, maps.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}))
		if err != nil {
			return nil, nil, err
		}
		gc = c
	}

	var geocoder upstream.Geocoder
	switch cfg.Geocoder {
	case config.ProviderGoogle:
		geocoder = gc
	default:
		g, err := ors.New(cfg.ORSAPIKey, cfg.ORSURL, cfg.UpstreamTimeout)
		if err != nil {
			return nil, nil, err
		}
		geocoder = g
	}

	var router upstream.Router
	switch cfg.Router {
	case config.ProviderGoogle:
		router = gc
	case config.ProviderStraight:
		router = upstream.NewStraightLine()
	default:
		router = osrm.New(cfg.OSRMURL, cfg.UpstreamTimeout)
	}
	return geocoder, router, nil
}

// migrate applies pending geocode-cache migrations through a database/sql
// view of the pool.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	for _, r := range results {
		slog.Info("migration applied", "version", r.Source.Version, "duration_ms", r.Duration.Milliseconds())
	}
	return nil
}
