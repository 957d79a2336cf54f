// Copyright 2025 Certen Protocol

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/certen/aig/pkg/audit"
	"github.com/certen/aig/pkg/changeset"
	"github.com/certen/aig/pkg/config"
	"github.com/certen/aig/pkg/database"
	"github.com/certen/aig/pkg/events"
	"github.com/certen/aig/pkg/firestore"
	"github.com/certen/aig/pkg/proofsvc"
	"github.com/certen/aig/pkg/server"
	"github.com/certen/aig/pkg/vertex"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "aig-server",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	vertices, changesets, closeStorage, err := wireStorage(cfg, logger)
	if err != nil {
		logger.Error("wire storage backend", "error", err)
		os.Exit(1)
	}
	defer closeStorage()

	proofs, err := proofsvc.NewLocalService(proofsvc.WithLogger(logger.Named("proofsvc")))
	if err != nil {
		logger.Error("construct proof service", "error", err)
		os.Exit(1)
	}

	bus := events.NewInProcessBus()
	metrics := audit.NewMetrics(prometheus.DefaultRegisterer)

	engine := audit.New(vertices, changesets, proofs,
		audit.WithBus(bus),
		audit.WithLogger(logger.Named("engine")),
		audit.WithMetrics(metrics),
	)

	limiter := wireLimiter(cfg)

	srvCfg := server.DefaultConfig()
	srvCfg.AllowedOrigins = cfg.CORSOrigins
	srvCfg.RateLimitPerMin = cfg.RateLimitRequests

	srv := server.New(engine, vertices, changesets, srvCfg, limiter, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := srv.Start(ctx, cfg.ListenAddr); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", "error", err)
		}
	case sig := <-quit:
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
		select {
		case err := <-errCh:
			if err != nil {
				logger.Error("server shutdown", "error", err)
			}
		case <-time.After(35 * time.Second):
			logger.Warn("server shutdown timed out")
		}
	}

	logger.Info("stopped")
}

// wireStorage selects and constructs the vertex/changeset stores per
// cfg.StorageBackend, returning a close function that releases any
// backend connection regardless of which backend was selected.
func wireStorage(cfg *config.Config, logger hclog.Logger) (vertex.Store, changeset.Store, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageBackendPostgres:
		client, err := database.NewClient(cfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := client.MigrateUp(); err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		repos := database.NewRepositories(client)
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("close postgres client", "error", err)
			}
		}
		return repos.Vertices, repos.Changesets, closeFn, nil

	case config.StorageBackendFirestore:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := firestore.NewClient(ctx, &firestore.ClientConfig{
			ProjectID:       cfg.FirestoreProjectID,
			CredentialsFile: cfg.FirestoreCredentialsFile,
			Enabled:         true,
			Logger:          logger.Named("firestore"),
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect firestore: %w", err)
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("close firestore client", "error", err)
			}
		}
		return firestore.NewVertexStore(client), firestore.NewChangesetStore(client), closeFn, nil

	default:
		return vertex.NewMemoryStore(), changeset.NewMemoryStore(), func() {}, nil
	}
}

// wireLimiter returns a Redis-backed limiter when REDIS_ADDR is set, a
// per-process memory limiter otherwise, and nil when rate limiting is
// disabled entirely (RateLimitRequests <= 0).
func wireLimiter(cfg *config.Config) server.Limiter {
	if cfg.RateLimitRequests <= 0 {
		return nil
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		window := time.Duration(cfg.RateLimitWindow) * time.Second
		return server.NewRedisLimiter(client, cfg.RateLimitRequests, window)
	}
	return server.NewMemoryLimiter(cfg.RateLimitRequests)
}
