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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/user/audioflow-service/internal/adapter/chromedp_flow"
	"github.com/user/audioflow-service/internal/adapter/postgres"
	redis_adapter "github.com/user/audioflow-service/internal/adapter/redis"
	"github.com/user/audioflow-service/internal/delivery/http/handler"
	"github.com/user/audioflow-service/internal/delivery/http/router"
	"github.com/user/audioflow-service/internal/usecase"
	"github.com/user/audioflow-service/pkg/config"
	"github.com/user/audioflow-service/pkg/logger"
	"github.com/user/audioflow-service/pkg/metrics"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()

	// --- Logger ---
	logLevel := logger.ParseLevel(cfg.LogLevel)
	logger.Init(os.Stdout, logLevel)
	slog.Info("Logger initialized", "level", logLevel.String())

	// --- Metrics ---
	metrics.Init()
	slog.Info("Metrics initialized")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database Connections ---

	// PostgreSQL
	pgConnString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
	dbpool, err := pgxpool.New(ctx, pgConnString)
	if err != nil {
		slog.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	slog.Info("PostgreSQL connection pool established")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		slog.Error("Unable to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("Redis connection established")

	// --- Repositories ---
	jobRepo := postgres.NewAudioJobRepo(dbpool)
	queueRepo := redis_adapter.NewJobQueueRepo(rdb)
	cacheRepo := redis_adapter.NewContentCacheRepo(rdb)
	automationRepo := chromedp_flow.New(cfg.Flow)

	// --- Use Cases ---
	audioManager := usecase.NewAudioManager(jobRepo, queueRepo, cacheRepo, cfg.Flow.MinContentChars)
	audioWorker := usecase.NewAudioWorker(queueRepo, jobRepo, cacheRepo, automationRepo, cfg.RunTimeout)

	// --- Automation Worker ---
	// A single loop drains the queue so at most one browser session is ever
	// active against the shared profile directory.
	go func() {
		for {
			if err := audioWorker.ProcessJobFromQueue(ctx); err != nil {
				slog.Error("Worker iteration failed", "error", err)
			}
			select {
			case <-ctx.Done():
				slog.Info("Automation worker stopping")
				return
			case <-time.After(cfg.QueuePollGap):
			}
		}
	}()

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(audioManager)
	httpRouter := router.New(apiHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting server", "port", cfg.ServerPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Could not listen on port", "port", cfg.ServerPort, "error", err)
		os.Exit(1)
	}
}
