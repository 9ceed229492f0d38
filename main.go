package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"teamroster/config"
	"teamroster/policy"
	"teamroster/routes"
	"teamroster/store"
	"teamroster/utils"
	"teamroster/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	cfg.LogConfig(logger)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			logger.WithError(err).Warn("Sentry initialization failed")
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database connection
	db, err := config.ConnectDB(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	var st store.Store = store.NewGormStore(db)
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.WithError(err).Warn("Redis unavailable; user cache will fall through to the database")
		}
		cancel()
		st = store.NewCachedStore(st, client, cfg.Redis.UserTTL, logger.WithField("component", "cache"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := worker.NewTeamReferenceWorker(st, cfg.TeamSweepInterval, logger.WithField("component", "team-sweeper"))
	go sweeper.Start(ctx)

	app := routes.NewApp(routes.Dependencies{
		Store:       st,
		Tokens:      utils.NewTokenService(cfg.JWTSecret),
		Engine:      policy.NewEngine(),
		Logger:      logger,
		BcryptCost:  cfg.BcryptCost,
		CORSOrigins: cfg.CORSOrigins,
		AccessLog:   true,
	})

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	// Start server
	logger.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
