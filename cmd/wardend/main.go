package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/warden/pkg/audit"
	"github.com/platinummonkey/warden/pkg/cache"
	"github.com/platinummonkey/warden/pkg/config"
	"github.com/platinummonkey/warden/pkg/engine"
	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/storage"
	"github.com/platinummonkey/warden/pkg/storage/extidp"
	"github.com/platinummonkey/warden/pkg/storage/s3"
	"github.com/platinummonkey/warden/pkg/storage/zk"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithField("storage", cfg.Storage.Type).Info("Starting warden")

	ctx := context.Background()

	backend, cleanups, err := buildBackend(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage backend: %v", err)
	}

	auditLogger, err := buildAuditLogger(cfg.Observability.AuditLogPath)
	if err != nil {
		log.Fatalf("Failed to initialize audit logger: %v", err)
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
		if cached, ok := backend.(*storage.CachedBackend); ok {
			cached.SetMetrics(metrics)
		}
	}

	opts := []engine.Option{
		engine.WithKeyPrefix(cfg.Storage.KeyPrefix),
		engine.WithLogger(logger),
		engine.WithAuditLogger(auditLogger),
		engine.WithMetrics(metrics),
		engine.WithSystemsGroup(cfg.Auth.SystemsGroup),
	}
	if cfg.Auth.JWTSecret != "" {
		opts = append(opts, engine.WithJWT([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTIssuer, cfg.Auth.JWTTTL))
	}
	eng := engine.New(backend, opts...)

	// Periodic expired-tag sweep. The read paths expire lazily so the sweep
	// only reclaims storage; read-only backends have nothing to reclaim.
	var sweeper *cron.Cron
	if cfg.Auth.TagSweepSchedule != "" && cfg.Storage.Type != storage.TypeExternal {
		sweeper = cron.New()
		_, err := sweeper.AddFunc(cfg.Auth.TagSweepSchedule, func() {
			n, err := eng.SweepExpiredTags(context.Background())
			if err != nil {
				logger.WithError(err).Error("Tag sweep failed")
				return
			}
			logger.WithField("swept", n).Debug("Tag sweep completed")
		})
		if err != nil {
			log.Fatalf("Failed to schedule tag sweep: %v", err)
		}
		sweeper.Start()
		logger.WithField("schedule", cfg.Auth.TagSweepSchedule).Info("Tag sweep scheduled")
	}

	var checker observability.BackendChecker
	if hc, ok := backend.(storage.HealthChecker); ok {
		checker = hc
	}
	health := observability.NewHealthHandler(checker)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", health.Liveness).Methods("GET")
	router.HandleFunc("/readyz", health.Readiness).Methods("GET")
	if metrics != nil {
		router.Handle("/metrics", metrics.Handler()).Methods("GET")
	}

	server := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: router,
	}
	go func() {
		logger.WithField("addr", server.Addr).Info("Health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Health server failed")
		}
	}()

	sm := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	if sweeper != nil {
		sm.RegisterShutdownFunc(func(ctx context.Context) error {
			select {
			case <-sweeper.Stop().Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	for _, cleanup := range cleanups {
		sm.RegisterShutdownFunc(cleanup)
	}

	if err := sm.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("Shutdown did not complete cleanly")
		os.Exit(1)
	}
}

// buildBackend constructs the configured storage backend, wrapping it in a
// read-through cache when enabled. The returned cleanups release backend
// resources during shutdown.
func buildBackend(ctx context.Context, cfg storage.Config) (storage.Backend, []observability.ShutdownFunc, error) {
	var (
		backend  storage.Backend
		cleanups []observability.ShutdownFunc
	)

	switch cfg.Type {
	case storage.TypeMemory:
		// Already process-local, never cached.
		return storage.NewMemoryBackend(), nil, nil
	case storage.TypeS3:
		b, err := s3.New(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("s3 backend: %w", err)
		}
		backend = b
	case storage.TypeZK:
		b, err := zk.New(cfg.ZKServers, cfg.ZKSessionTimeout, cfg.ZKRoot)
		if err != nil {
			return nil, nil, fmt.Errorf("zookeeper backend: %w", err)
		}
		cleanups = append(cleanups, func(context.Context) error {
			b.Close()
			return nil
		})
		backend = b
	case storage.TypeExternal:
		b, err := extidp.New(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("external provider backend: %w", err)
		}
		backend = b
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}

	if !cfg.CacheEnabled {
		return backend, cleanups, nil
	}

	var docCache cache.Cache
	switch {
	case cfg.RedisAddr != "":
		rc, err := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		cleanups = append(cleanups, func(context.Context) error { return rc.Close() })
		docCache = rc
	case cfg.Type == storage.TypeExternal:
		// Provider lookups are slow and plentiful; shard to keep lock
		// contention down.
		docCache = cache.NewShardedTTL(cfg.CacheShards, cfg.CacheTTL)
	default:
		docCache = cache.NewCapped(cfg.CacheCapacity, cfg.CacheTTL)
	}

	keys := storage.NewKeySpace(cfg.KeyPrefix)
	return storage.NewCached(backend, docCache, keys.UsersPrefix(), keys.GroupsPrefix()), cleanups, nil
}

// buildAuditLogger writes audit events to stderr, and additionally to the
// configured file when one is set.
func buildAuditLogger(path string) (audit.Logger, error) {
	stream := audit.NewStreamLogger(os.Stderr)
	if path == "" {
		return stream, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return audit.NewMultiLogger(stream, audit.NewStreamLogger(f)), nil
}
