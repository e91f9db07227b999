// @title                       Credential Vault API
// @version                     1.0
// @description                 Per-user credential storage with strength scoring, login rate limiting and security alerts.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/vaultguard/credential-vault/internal/api"
	"github.com/vaultguard/credential-vault/internal/api/metrics"
	"github.com/vaultguard/credential-vault/internal/core/domain"
	"github.com/vaultguard/credential-vault/internal/core/ports"
	"github.com/vaultguard/credential-vault/internal/core/service"
	"github.com/vaultguard/credential-vault/internal/infrastructure/config"
	mongodb "github.com/vaultguard/credential-vault/internal/infrastructure/db/mongo"
	redisdb "github.com/vaultguard/credential-vault/internal/infrastructure/db/redis"
	infrahttp "github.com/vaultguard/credential-vault/internal/infrastructure/http"
	"github.com/vaultguard/credential-vault/internal/infrastructure/http/handlers"
	"github.com/vaultguard/credential-vault/internal/infrastructure/queue"
	"github.com/vaultguard/credential-vault/internal/infrastructure/ratelimit"
	"github.com/vaultguard/credential-vault/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Pretty: true})
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment(), Service: "credential-vault"})

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		Timeout:     cfg.Mongo.Timeout,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Repositories ---
	users := mongodb.NewUserRepository(db)
	entries := mongodb.NewEntryRepository(db)
	activity := mongodb.NewActivityRepository(db)
	alertRepo := mongodb.NewAlertRepository(db)

	// --- Services ---
	var attempts ports.AttemptStore
	switch cfg.RateLimit.Backend {
	case config.RateLimitBackendMemory:
		attempts = ratelimit.NewMemoryStore(cfg.RateLimit.MaxIdentities)
	default:
		attempts = redisdb.NewAttemptStore(rdb)
	}
	gate := service.NewRateGate(attempts, service.RateGateConfig{
		MaxAttempts: cfg.RateLimit.MaxAttempts,
		BlockWindow: cfg.RateLimit.BlockWindow,
	}, logger.Component("rate_gate"))

	alerts := service.NewAlertService(alertRepo, entries, logger.Component("alerts")).OnRaise(func(kind domain.AlertKind) {
		metrics.AlertsRaisedTotal.WithLabelValues(string(kind)).Inc()
	})
	vault := service.NewVaultService(entries, alerts, logger.Component("vault"))
	auth := service.NewAuthService(users, activity, gate, cfg.JWTSecret, cfg.TokenTTL, logger.Component("auth"))

	dispatcher := queue.NewDispatcher(cfg.Scan.Workers, alerts, logger.Component("scan_queue")).OnDepth(func(worker string, n int) {
		metrics.ScanQueueDepth.WithLabelValues(worker).Set(float64(n))
	})
	dispatcher.Start(ctx)

	ipExtractor, err := infrahttp.NewIPExtractor(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	e := api.NewRouter(api.Deps{
		Probes: []handlers.Probe{
			handlers.MongoProbe(db),
			handlers.RedisProbe(rdb, cfg.RateLimit.Backend == config.RateLimitBackendRedis),
		},
		JWTSecret:   cfg.JWTSecret,
		Log:         logger.Component("http"),
		IPExtractor: ipExtractor,
		Auth:        auth,
		Vault:       vault,
		Alerts:      alerts,
		Activity:    service.NewActivityService(activity, cfg.ActivityMaxLimit),
		Generator:   service.NewGenerator(),
		ScanDedup:   redisdb.NewScanDedup(rdb, cfg.Scan.DedupTTL),
		ScanQueue:   dispatcher,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("rate_limit_backend", cfg.RateLimit.Backend).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
