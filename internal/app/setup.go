// Package app contains the application setup for the catalog service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/catalog/internal/cache"
	"github.com/abgdnv/catalog/internal/config"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/abgdnv/catalog/internal/transport/rest"
	"github.com/abgdnv/catalog/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Dependencies struct {
	CatalogService service.CatalogService
	Ready          rest.ReadyChecker
	Logger         *slog.Logger
}

// SetupDependencies wires the explicit resource bundle: pool and cache client
// are constructed once at startup and passed by reference into every component.
func SetupDependencies(dbPool *pgxpool.Pool, redisClient *redis.Client, logger *slog.Logger, cfg *config.Config) *Dependencies {
	productCache := cache.NewRedisCache(redisClient, cfg.Cache.ScanPageSize)
	invalidator := cache.NewInvalidator(productCache, logger)
	cService := service.NewService(store.NewPgStore(dbPool, cfg.Database.QueryTimeout), productCache, invalidator, cfg.Cache.TTL, logger)

	ready := func(ctx context.Context) error {
		if err := dbPool.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		return nil
	}

	return &Dependencies{
		CatalogService: cService,
		Ready:          ready,
		Logger:         logger,
	}
}

// SetupHttpHandler builds the router with the shared middleware chain and
// the catalog routes mounted on it.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the catalog service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	catalogHandler := rest.NewHandler(deps.CatalogService, deps.Ready, deps.Logger)
	catalogHandler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the catalog service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {

	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
