package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/dictameal/backend/internal/cache"
	"github.com/dictameal/backend/internal/config"
	"github.com/dictameal/backend/internal/logger"
	"github.com/dictameal/backend/internal/sentry"
	"github.com/dictameal/backend/internal/services/transcription"
	"github.com/dictameal/backend/internal/telemetry"
	"github.com/dictameal/backend/internal/utils"
	"github.com/dictameal/backend/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.RedisURL == "" {
		log.Fatal("REDIS_URL is required for the worker")
	}

	// Initialize telemetry
	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    cfg.ServiceName + "-worker",
		ServiceVersion: cfg.ServiceVersion,
		Env:            cfg.Env,
		Endpoint:       cfg.OtelExporterOTLPEndpoint,
		Headers:        telemetry.ParseHeaders(cfg.OtelExporterOTLPHeaders),
	})
	if err != nil {
		slog.Warn("Failed to init telemetry", "error", err)
	} else {
		defer shutdown(ctx)
	}

	// Initialize logger with OTel support
	slog.SetDefault(logger.New(cfg.Env, cfg.LogLevel))

	// Initialize Sentry
	if err := sentry.Init(sentry.Options{
		DSN:            cfg.SentryDSN,
		Env:            cfg.Env,
		ServiceName:    cfg.ServiceName + "-worker",
		ServiceVersion: cfg.ServiceVersion,
	}); err != nil {
		slog.Warn("Failed to init Sentry", "error", err)
	}
	defer sentry.Flush(2 * time.Second)

	redisClient, err := cache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to configure Redis: %v", err)
	}
	defer redisClient.Close()
	if _, err := utils.WithRetry(ctx, "redis ping", func(ctx context.Context) (string, error) {
		return redisClient.Ping(ctx).Result()
	}, utils.StartupRetryConfig()); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	jobs := cache.NewRedisJobStore(redisClient, cache.DefaultJobTTL)

	provider := transcription.NewProvider(cfg.Transcription, cfg.WhisperBaseURL, cfg.OpenAIKey, cfg.GroqKey)
	service := transcription.NewService(provider, cfg.Transcription.MaxConcurrent,
		transcription.WithNormalize(cfg.Transcription.NormalizeAudio))

	srv, err := worker.NewServer(cfg.RedisURL, cfg.Transcription.MaxConcurrent)
	if err != nil {
		log.Fatalf("Failed to create worker server: %v", err)
	}
	mux := worker.NewServeMux(worker.NewTranscriptionProcessor(service, jobs))

	if err := srv.Start(mux); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}
	slog.Info("Worker started",
		"concurrency", cfg.Transcription.MaxConcurrent,
		"provider", cfg.Transcription.Provider)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	slog.Info("Shutting down worker")
	srv.Shutdown()
}
