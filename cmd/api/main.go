// Command api serves the order management HTTP API.
//
// @title                       Order Management API
// @version                     1.0
// @description                 User accounts, JWT authentication and the order lifecycle.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/99minutos/order-management/internal/api"
	"github.com/99minutos/order-management/internal/api/handler"
	"github.com/99minutos/order-management/internal/core/service"
	mongodb "github.com/99minutos/order-management/internal/infrastructure/db/mongo"
	redisdb "github.com/99minutos/order-management/internal/infrastructure/db/redis"
	"github.com/99minutos/order-management/internal/infrastructure/queue"
	"github.com/99minutos/order-management/internal/infrastructure/security"
	"github.com/99minutos/order-management/internal/pkg/config"
	"github.com/99minutos/order-management/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	pingTimeout     = 2 * time.Second
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "order-management",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("mongo index creation failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Repositories ---
	users := mongodb.NewUserRepository(db)
	orders := mongodb.NewOrderRepository(db)
	events := mongodb.NewEventRepository(db)
	idempotency := redisdb.NewIdempotencyStore(rdb, cfg.Orders.IdempotencyTTL)

	// --- Services ---
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	audit := service.NewAuditService(events, logger.Component("audit"))
	dispatcher := queue.NewDispatcher(cfg.Orders.AuditWorkers, audit, logger.Component("dispatcher"))
	dispatcher.Start(context.Background())

	authService := service.NewAuthService(users, hasher, tokens, cfg.Auth.AdminSecretKey, logger.Component("auth"))
	orderService := service.NewOrderService(
		orders,
		events,
		idempotency,
		dispatcher,
		service.OrderOptions{StrictTransitions: cfg.Orders.StrictTransitions},
		logger.Component("orders"),
	)
	userService := service.NewUserService(users, hasher, logger.Component("users"))
	statsService := service.NewStatsService(users, orders)

	e := api.NewRouter(api.Dependencies{
		Log:      logger.Component("http"),
		Verifier: tokens,
		Auth:     authService,
		Orders:   orderService,
		Users:    userService,
		Stats:    statsService,
		Health: map[string]handler.Pinger{
			"mongodb": handler.PingFunc(func(ctx context.Context) error {
				return mongoClient.Ping(ctx, nil)
			}),
			"redis": handler.PingFunc(func(ctx context.Context) error {
				return redisdb.Ping(ctx, rdb, pingTimeout)
			}),
		},
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("audit queue not fully drained")
	}
	log.Info().Msg("shutdown complete")
}
