package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dcallahan/interaction-management/internal/api"
	"github.com/dcallahan/interaction-management/internal/auth"
	"github.com/dcallahan/interaction-management/internal/auth/auth0"
	"github.com/dcallahan/interaction-management/internal/config"
	"github.com/dcallahan/interaction-management/internal/observability/errortrack"
	"github.com/dcallahan/interaction-management/internal/observability/metrics"
	"github.com/dcallahan/interaction-management/internal/repository/postgres"
	"github.com/dcallahan/interaction-management/internal/service"
	"github.com/dcallahan/interaction-management/internal/sitectx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	repos := postgres.NewRepositories(db)

	// Shared cache: Redis when configured, process-local stores otherwise.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
	}

	var blacklist auth.Blacklist
	var siteStore sitectx.Store
	var searchCache service.SearchCache
	if rdb != nil {
		blacklist = auth.NewRedisBlacklist(rdb)
		siteStore = sitectx.NewRedisStore(rdb, cfg.RefreshTokenTTL)
		searchCache = service.NewRedisSearchCache(rdb)
	} else {
		blacklist = auth.NewMemoryBlacklist(cfg.BlacklistMaxEntries)
		siteStore = sitectx.NewMemoryStore()
		searchCache = service.NewMemorySearchCache(cfg.SearchCacheMaxEntries)
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, blacklist)

	var provider auth.IdentityProvider
	if cfg.AuthProvider == "auth0" {
		provider = auth0.NewClient(cfg.Auth0Domain, cfg.Auth0ClientID, cfg.Auth0ClientSecret, cfg.Auth0Audience, repos.Membership)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	tracker := errortrack.New(cfg.ErrorTrackerMaxItems, nil)

	services := service.NewServices(service.Deps{
		Repos:     repos,
		Config:    cfg,
		Tokens:    tokens,
		SiteStore: siteStore,
		Cache:     searchCache,
		Provider:  provider,
		Metrics:   m,
	})

	router := api.NewRouter(api.RouterDeps{
		Services: services,
		Tokens:   tokens,
		Config:   cfg,
		DB:       db,
		Metrics:  m,
		Registry: registry,
		Tracker:  tracker,
	})

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
