package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ourpoint/fisher-accounts/internal/api"
	"github.com/ourpoint/fisher-accounts/internal/api/handler"
	"github.com/ourpoint/fisher-accounts/internal/api/metrics"
	"github.com/ourpoint/fisher-accounts/internal/core/ports"
	"github.com/ourpoint/fisher-accounts/internal/core/service"
	mongostore "github.com/ourpoint/fisher-accounts/internal/infrastructure/db/mongo"
	redisstore "github.com/ourpoint/fisher-accounts/internal/infrastructure/db/redis"
	"github.com/ourpoint/fisher-accounts/internal/infrastructure/db/sqlite"
	"github.com/ourpoint/fisher-accounts/internal/infrastructure/hash"
	"github.com/ourpoint/fisher-accounts/internal/infrastructure/queue"
	"github.com/ourpoint/fisher-accounts/internal/infrastructure/token"
	"github.com/ourpoint/fisher-accounts/internal/pkg/config"
	"github.com/ourpoint/fisher-accounts/pkg/logger"
)

const serviceName = "fisher-accounts"

// storage bundles whichever account backend STORE_DRIVER selected.
type storage struct {
	accounts ports.AccountStore
	tx       ports.Transactor
	events   ports.AccountEventRepository
	ping     handler.Check
	close    func(ctx context.Context) error
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{Service: serviceName})
		l := logger.Get()
		l.Fatal().Err(err).Msg("configuration invalid")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
		Env:     cfg.Env,
	})

	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open account store")
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	hasher, err := hash.New(cfg.Accounts.Hasher, cfg.Accounts.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build credential hasher")
	}

	issuer, err := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build token issuer")
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	dispatcher := queue.NewDispatcher(cfg.Accounts.AuditWorkers, store.events, logger.Component("audit_dispatcher"))
	dispatcher.Start(workerCtx)

	refreshTokens := redisstore.NewRefreshTokenStore(rdb)
	accounts := metrics.InstrumentAccountService(service.NewAccountService(
		store.accounts, store.tx, hasher, logger.Component("account_service"),
		service.WithBootstrapAdmin(cfg.Accounts.BootstrapAdminEmail),
		service.WithEventPublisher(dispatcher),
		service.WithSessionRevoker(refreshTokens),
	))
	auth := service.NewAuthService(
		accounts, issuer, refreshTokens,
		cfg.Auth.RefreshTokenTTL, logger.Component("auth_service"),
	)

	e := api.NewRouter(api.Deps{
		Accounts:  accounts,
		Auth:      auth,
		JWTSecret: cfg.Auth.JWTSecret,
		ReadinessChecks: map[string]handler.Check{
			cfg.Store.Driver: store.ping,
			"redis":          redisstore.Check(rdb),
		},
		Log: log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.Store.Driver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// No request can publish any more; flush the audit queue before the
	// store goes away.
	dispatcher.Stop()
	stopWorkers()

	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close failed")
	}
	if err := store.close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("account store close failed")
	}

	log.Info().Msg("server stopped")
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if cfg.Store.Driver == config.StoreSQLite {
		db, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &storage{
			accounts: db.Accounts(),
			tx:       db,
			events:   sqlite.NewEventRepository(db),
			ping:     db.Ping,
			close:    func(context.Context) error { return db.Close() },
		}, nil
	}

	client, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		return nil, err
	}

	accounts := mongostore.NewAccountStore(db)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if !cfg.Mongo.Transactions {
		l := logger.Get()
		l.Warn().Msg("mongo transactions disabled; lifecycle operations are not atomic")
	}

	return &storage{
		accounts: accounts,
		tx:       mongostore.NewTransactor(client, accounts, cfg.Mongo.Transactions),
		events:   mongostore.NewEventRepository(db),
		ping:     func(ctx context.Context) error { return mongostore.Ping(ctx, db) },
		close:    client.Disconnect,
	}, nil
}
