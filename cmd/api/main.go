package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "github.com/epicevents/crm/docs"
	"github.com/epicevents/crm/internal/api"
	"github.com/epicevents/crm/internal/api/metrics"
	"github.com/epicevents/crm/internal/core/ports"
	"github.com/epicevents/crm/internal/core/service"
	"github.com/epicevents/crm/internal/infrastructure/config"
	"github.com/epicevents/crm/internal/infrastructure/db/memory"
	mongostore "github.com/epicevents/crm/internal/infrastructure/db/mongo"
	"github.com/epicevents/crm/internal/infrastructure/db/postgres"
	redisstore "github.com/epicevents/crm/internal/infrastructure/db/redis"
	httpserver "github.com/epicevents/crm/internal/infrastructure/http"
	"github.com/epicevents/crm/internal/infrastructure/http/handlers"
	"github.com/epicevents/crm/internal/infrastructure/queue"
	"github.com/epicevents/crm/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title						Epic Events CRM API
// @version					1.0
// @description				Clients, contracts and events with role-based permissions.
// @host						localhost:8080
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "crm: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "crm",
	})
	log.Info().Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("starting")

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore(store, log)

	probes := map[string]handlers.PingFunc{"store": store.Ping}

	var (
		guard   ports.MutationGuard
		limiter ports.LoginLimiter
	)
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer closeRedis(rdb, log)

		guard = redisstore.NewGuard(rdb, cfg.Redis.LockTTL, logger.Component("lock"))
		limiter = redisstore.NewLoginLimiter(rdb, cfg.Redis.LoginRatePerMinute)
		probes["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	recorder := metrics.Recorder{}
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, store.Audit(), recorder, logger.Component("audit"))
	// Queued entries are still written after the shutdown signal.
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Close()

	deps := service.Dependencies{
		Store:    store,
		Guard:    guard,
		Audit:    dispatcher,
		Observer: recorder,
		Logger:   log,
	}

	authOpts := []service.AuthOption{service.WithLoginObserver(recorder)}
	if limiter != nil {
		authOpts = append(authOpts, service.WithLoginLimiter(limiter))
	}
	authSvc := service.NewAuthService(store.Users(), cfg.JWTSecret, cfg.JWTTTL, logger.Component("auth"), authOpts...)

	if cfg.Bootstrap.Username != "" {
		if _, err := authSvc.Bootstrap(ctx, cfg.Bootstrap.Username, cfg.Bootstrap.Password, cfg.Bootstrap.Email); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	router := api.NewRouter(api.Services{
		Auth:      authSvc,
		Users:     service.NewUserService(deps),
		Clients:   service.NewClientService(deps),
		Contracts: service.NewContractService(deps),
		Events:    service.NewEventService(deps),
	}, probes, log)

	srv := httpserver.NewServer(router, cfg.Port, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	log.Info().Msg("stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, err
		}
		store := mongostore.NewStore(client, db, cfg.Mongo.Transactions)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo connected")
		return store, nil

	case config.DriverPostgres:
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(ctx, cfg.Postgres.DSN); err != nil {
				return nil, err
			}
		}
		db, err := postgres.Connect(ctx, postgres.Config{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Int32("max_conns", cfg.Postgres.MaxConns).Msg("postgres connected")
		return postgres.NewStore(db), nil

	case config.DriverMemory:
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return memory.New(), nil
	}
	return nil, errors.New("unknown store driver " + cfg.StoreDriver)
}

func closeStore(store ports.Store, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		log.Error().Err(err).Msg("store close")
	}
}

func closeRedis(rdb *goredis.Client, log zerolog.Logger) {
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
}
