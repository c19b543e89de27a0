package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/listingbridge/internal/config"
	"github.com/JonMunkholm/listingbridge/internal/images"
	"github.com/JonMunkholm/listingbridge/internal/logging"
	"github.com/JonMunkholm/listingbridge/internal/store"
	"github.com/JonMunkholm/listingbridge/internal/transform"
	"github.com/JonMunkholm/listingbridge/internal/translate"
	"github.com/JonMunkholm/listingbridge/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"database", cfg.Database.Enabled(),
		"translation_provider", cfg.Translation.Provider,
		"export_max_concurrent", cfg.Export.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()
	var opts []web.Option
	opts = append(opts, web.WithLogger(logger))

	if cfg.Database.Enabled() {
		pool, err := connectDB(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		opts = append(opts, web.WithProducts(store.New(pool)), web.WithHealthCheck("postgres", pool))
	} else {
		logger.Info("no database configured, SKU lookups disabled")
	}

	trOpts := []translate.Option{
		translate.WithTimeout(cfg.Translation.Timeout),
		translate.WithLogger(logger),
	}
	if cfg.Redis.URL != "" {
		cache, err := translate.NewRedisCache(ctx, translate.RedisCacheOptions{
			URL:            cfg.Redis.URL,
			Prefix:         cfg.Redis.Prefix,
			ConnectTimeout: cfg.Redis.ConnectTimeout,
		})
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer cache.Close()

		trOpts = append(trOpts, translate.WithCache(cache, cfg.Translation.CacheTTL))
		opts = append(opts, web.WithHealthCheck("redis", cache))
		logger.Info("translation cache enabled", "prefix", cfg.Redis.Prefix, "ttl", cfg.Translation.CacheTTL)
	}

	var provider translate.Provider
	if cfg.Translation.Provider == "openai" {
		provider = translate.NewOpenAIProvider(cfg.Translation.OpenAIAPIKey, cfg.Translation.Model)
		logger.Info("translation provider enabled", "provider", "openai", "model", cfg.Translation.Model)
	} else {
		logger.Warn("no translation provider configured, listings ship in their source language")
	}

	fetcher := images.NewFetcher(
		images.WithHTTPClient(&http.Client{Timeout: cfg.Images.FetchTimeout}),
		images.WithConcurrency(cfg.Images.FetchConcurrency),
		images.WithLogger(logger),
	)

	engine := transform.New(
		translate.New(provider, trOpts...),
		transform.WithRates(cfg.Pricing.RateTable()),
		transform.WithFetcher(fetcher),
		transform.WithConcurrency(cfg.Export.Workers),
		transform.WithLogger(logger),
	)

	server := web.NewServer(engine, cfg, opts...)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	logger.Info("server stopped")
}

// connectDB opens and verifies the product master pool.
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
