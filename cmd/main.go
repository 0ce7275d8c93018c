/**
 * @description
 * This is the main entry point for the voice banking assistant service. It
 * initializes and wires together all the components: configuration, the
 * structured logger, the PostgreSQL ledger with its demo seed, the Redis
 * rate limiter, the RabbitMQ event producer, the Groq language-capability
 * client, the in-memory session store with its idle sweep, the dialogue
 * service, and the HTTP server.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/hare32/Collabothon-AIHolics/internal/api"
	"github.com/hare32/Collabothon-AIHolics/internal/app"
	"github.com/hare32/Collabothon-AIHolics/internal/config"
	"github.com/hare32/Collabothon-AIHolics/internal/session"
	"github.com/hare32/Collabothon-AIHolics/internal/store"
	"github.com/hare32/Collabothon-AIHolics/pkg/groqclient"
	"github.com/hare32/Collabothon-AIHolics/pkg/rabbitmq"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load .env for local development; environment variables win either way.
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if strings.TrimSpace(cfg.GroqAPIKey) == "" {
		logger.Error("GROQ_API_KEY must be configured")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("starting voice assistant service", "port", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL ledger.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 20
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connected")

	if err := store.EnsureSchema(ctx, dbpool); err != nil {
		logger.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}
	if err := store.SeedDemoData(ctx, dbpool); err != nil {
		logger.Error("failed to seed demo data", "error", err)
		os.Exit(1)
	}

	repo := store.NewPostgresRepository(dbpool)

	// Redis rate limiter is optional; without it, turns are not limited.
	var limiter *app.RedisTurnRateLimiter
	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warn("invalid redis URL, rate limiting disabled", "error", err)
		} else {
			redisClient := redis.NewClient(opts)
			defer redisClient.Close()
			limiter = app.NewRedisTurnRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
			logger.Info("redis rate limiter enabled")
		}
	}

	// RabbitMQ producer degrades to a logging no-op when the broker is down.
	var producer rabbitmq.Publisher
	if strings.TrimSpace(cfg.RabbitMQURL) != "" {
		eventProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			logger.Warn("rabbitmq producer unavailable, using fallback", "error", err)
			producer = &rabbitmq.EventProducerFallback{Logger: logger}
		} else {
			defer eventProducer.Close()
			producer = eventProducer
			logger.Info("rabbitmq producer connected")
		}
	} else {
		producer = &rabbitmq.EventProducerFallback{Logger: logger}
	}

	nlu := groqclient.NewClient(cfg.GroqAPIBaseURL, cfg.GroqAPIKey, cfg.GroqModel)

	sessions := session.NewStore()
	authenticator := app.NewAuthenticator(cfg.AuthMaxAttempts, logger)
	service := app.NewService(repo, nlu, sessions, producer, authenticator, cfg.HistoryTurnCap, logger)

	// Periodic sweep for calls that never reached a clean hangup.
	sweeper := cron.New()
	idleTTL := time.Duration(cfg.SessionIdleTTLMinutes) * time.Minute
	if _, err := sweeper.AddFunc(cfg.SessionSweepSchedule, func() {
		if removed := sessions.PruneIdle(idleTTL); removed > 0 {
			logger.Info("pruned idle sessions", "count", removed)
		}
	}); err != nil {
		logger.Error("failed to schedule session sweep", "error", err)
		os.Exit(1)
	}
	sweeper.Start()
	defer sweeper.Stop()

	handlers := api.NewHandlers(service, repo, limiter, cfg, logger)
	router := api.Routes(handlers)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	// Run the server in a goroutine so shutdown signals can be handled.
	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("service stopped")
}
