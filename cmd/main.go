/**
 * @description
 * This is the main entry point for the church-management service. Its
 * responsibility is to initialize all components and start the HTTP
 * server and the background sweep scheduler.
 *
 * Key features:
 * - Loads application configuration from environment variables.
 * - Establishes and manages a connection pool to the PostgreSQL database.
 * - Connects the optional RabbitMQ producer and Redis rate limiter;
 *   either may be absent and the service degrades gracefully.
 * - Wires up the services with their repositories and starts the cron
 *   scheduler for the reservation-expiry and overdue sweeps.
 * - Starts the HTTP server and implements graceful shutdown.
 *
 * @dependencies
 * - The service's internal packages for config, app logic, storage and API.
 * - pgxpool for database connection, godotenv for local config, rabbitmq
 *   for messaging, go-redis for rate limiting.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/api"
	"github.com/tperrut/gestao-igrejas2-sub000/internal/app"
	"github.com/tperrut/gestao-igrejas2-sub000/internal/config"
	"github.com/tperrut/gestao-igrejas2-sub000/internal/metrics"
	"github.com/tperrut/gestao-igrejas2-sub000/internal/store"
	"github.com/tperrut/gestao-igrejas2-sub000/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("cannot load config", "error", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" || cfg.JWTSecret == "" {
		logger.Error("DATABASE_URL and JWT_SECRET are required")
		os.Exit(1)
	}

	// Establish database connection pool.
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	dbConfig.MaxConns = 25
	dbConfig.MinConns = 5
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute
	// Disable prepared statement caching to prevent conflicts behind
	// connection poolers.
	dbConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// RabbitMQ is optional; circulation works without notifications.
	var producer rabbitmq.Publisher
	if cfg.RabbitMQURL != "" {
		p, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			logger.Warn("rabbitmq unavailable, events disabled", "error", err)
		} else {
			producer = p
			defer p.Close()
			logger.Info("rabbitmq producer connected")
		}
	}

	// Redis is optional; without it the reservation limiter allows all.
	var redisClient redis.UniversalClient
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warn("invalid REDIS_URL, rate limiting disabled", "error", err)
		} else {
			redisClient = redis.NewClient(opts)
			defer redisClient.Close()
			logger.Info("redis client connected")
		}
	}
	limiter := app.NewRedisReservationLimiter(
		redisClient, "church:reservation_limit",
		cfg.ReservationRateLimit,
		time.Duration(cfg.ReservationRateWindow)*time.Second,
	)

	m := metrics.NewMetrics()

	// Set up dependencies.
	repo := store.NewRepository(dbpool)
	libraryService := app.NewLibraryService(repo, producer, limiter, cfg, logger, m)
	memberService := app.NewMemberService(repo)
	scheduleService := app.NewScheduleService(repo)
	pastoralService := app.NewPastoralService(repo, producer, logger, m)
	provisioningService := app.NewProvisioningService(repo, producer, logger)

	// Start the sweep scheduler.
	jobs := app.NewJobs(repo, producer, logger, m)
	scheduler := app.NewScheduler(jobs, logger, cfg)
	scheduler.Start()

	// Setup and start HTTP server.
	handler := api.NewHandler(libraryService, memberService, scheduleService, pastoralService, provisioningService)
	router := api.NewRouter(cfg, handler, repo, m)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting HTTP server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("could not start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server gracefully stopped")
}
