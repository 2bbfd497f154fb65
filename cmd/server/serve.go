package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/realtyhub/marketplace-api/internal/api"
	"github.com/realtyhub/marketplace-api/internal/core/ports"
	"github.com/realtyhub/marketplace-api/internal/core/service"
	"github.com/realtyhub/marketplace-api/internal/infrastructure/db/memory"
	mongodb "github.com/realtyhub/marketplace-api/internal/infrastructure/db/mongo"
	redisstore "github.com/realtyhub/marketplace-api/internal/infrastructure/db/redis"
	"github.com/realtyhub/marketplace-api/internal/infrastructure/http/handlers"
	"github.com/realtyhub/marketplace-api/internal/infrastructure/queue"
	"github.com/realtyhub/marketplace-api/internal/pkg/config"
	"github.com/realtyhub/marketplace-api/pkg/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

type storage struct {
	users ports.UserRepository
	audit ports.AuditRepository
	close func(context.Context)
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{
		Level:       cfg.LogLevel,
		Pretty:      cfg.IsDevelopment(),
		Service:     "realtyhub",
		Environment: cfg.Env,
	})

	readiness := make(map[string]handlers.Check)

	store, err := openStorage(ctx, cfg, log, readiness)
	if err != nil {
		return err
	}
	defer store.close(context.Background())

	counters, closeCounters, err := openCounterStore(ctx, cfg, log, readiness)
	if err != nil {
		return err
	}
	defer closeCounters()

	limiter := service.NewRateLimiter(counters, service.RateLimiterConfig{}, logger.With("rate_limiter"))
	creds, err := service.NewCredentialService(service.CredentialConfig{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	}, limiter)
	if err != nil {
		return err
	}

	dispatcher := queue.NewAuditDispatcher(cfg.Audit.Workers, cfg.Audit.Buffer, store.audit, logger.With("audit"))
	dispatcher.Start()

	e := api.NewRouter(api.Dependencies{
		Auth:        service.NewAuthService(store.users, creds, logger.With("auth")),
		Accounts:    service.NewAccountService(store.users, logger.With("accounts")),
		Credentials: creds,
		Limiter:     limiter,
		Users:       store.users,
		Audit:       dispatcher,
		Readiness:   readiness,
	}, api.Options{
		AllowedOrigins:       cfg.AllowedOrigins(),
		ExposeInternalErrors: cfg.IsDevelopment(),
		SecureCookies:        cfg.Auth.SecureCookies,
	}, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.StorageBackend).Str("rate_limit", cfg.RateLimit.Backend).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("audit queue not fully drained")
	}
	log.Info().Msg("server stopped")
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger, readiness map[string]handlers.Check) (*storage, error) {
	if cfg.StorageBackend == config.BackendMemory {
		log.Warn().Msg("memory storage selected: principals and audit entries are lost on restart")
		return &storage{
			users: memory.NewUserRepository(nil),
			audit: memory.NewAuditLog(),
			close: func(context.Context) {},
		}, nil
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
		AppName:  "realtyhub",
	})
	if err != nil {
		return nil, err
	}

	users := mongodb.NewUserRepository(db)
	audit := mongodb.NewAuditRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, audit, cfg.Audit.Retention); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	readiness["mongodb"] = handlers.MongoCheck(db)

	return &storage{
		users: users,
		audit: audit,
		close: func(ctx context.Context) {
			if err := client.Disconnect(ctx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		},
	}, nil
}

func openCounterStore(ctx context.Context, cfg *config.Config, log zerolog.Logger, readiness map[string]handlers.Check) (ports.CounterStore, func(), error) {
	if cfg.RateLimit.Backend == config.BackendRedis {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		readiness["redis"] = handlers.RedisCheck(rdb)
		return redisstore.NewCounterStore(rdb), func() {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close")
			}
		}, nil
	}

	counters := memory.NewCounterStore(nil)
	if cfg.RateLimit.SweepInterval > 0 {
		counters.StartJanitor(ctx, cfg.RateLimit.SweepInterval)
	}
	return counters, func() {}, nil
}
