package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"

	"github.com/dictameal/backend/internal/api"
	"github.com/dictameal/backend/internal/cache"
	"github.com/dictameal/backend/internal/config"
	"github.com/dictameal/backend/internal/db"
	"github.com/dictameal/backend/internal/logger"
	"github.com/dictameal/backend/internal/sentry"
	"github.com/dictameal/backend/internal/services/ollama"
	"github.com/dictameal/backend/internal/services/recipe"
	"github.com/dictameal/backend/internal/services/search"
	"github.com/dictameal/backend/internal/services/transcription"
	"github.com/dictameal/backend/internal/store"
	"github.com/dictameal/backend/internal/telemetry"
	"github.com/dictameal/backend/internal/utils"
	"github.com/dictameal/backend/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize telemetry
	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Env:            cfg.Env,
		Endpoint:       cfg.OtelExporterOTLPEndpoint,
		Headers:        telemetry.ParseHeaders(cfg.OtelExporterOTLPHeaders),
	})
	if err != nil {
		slog.Warn("Failed to init telemetry", "error", err)
	}

	// Initialize logger with OTel support
	slog.SetDefault(logger.New(cfg.Env, cfg.LogLevel))

	// Initialize Sentry
	if err := sentry.Init(sentry.Options{
		DSN:            cfg.SentryDSN,
		Env:            cfg.Env,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
	}); err != nil {
		slog.Warn("Failed to init Sentry", "error", err)
	}
	defer sentry.Flush(2 * time.Second)

	// Structuring pipeline
	ollamaClient := ollama.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.Timeout, cfg.Ollama.ListTimeout)
	resolver := recipe.NewModelResolver(ollamaClient, cfg.Ollama.Model, cfg.Ollama.ModelPreferences, cfg.Ollama.DefaultModel)
	var augmenter *recipe.Augmenter
	if cfg.Search.SearchEnabled() {
		augmenter = recipe.NewAugmenter(search.NewClient(cfg.Search.BaseURL, cfg.Search.Timeout), cfg.Search.MaxResults)
	}
	deps := api.Deps{
		Pipeline: recipe.NewPipeline(resolver, augmenter, ollamaClient),
	}

	// Synchronous transcription
	provider := transcription.NewProvider(cfg.Transcription, cfg.WhisperBaseURL, cfg.OpenAIKey, cfg.GroqKey)
	deps.Transcriber = transcription.NewService(provider, cfg.Transcription.MaxConcurrent,
		transcription.WithNormalize(cfg.Transcription.NormalizeAudio))

	// Background transcription jobs
	if cfg.RedisURL != "" {
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

		asynqClient, err := worker.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to create task client: %v", err)
		}
		defer asynqClient.Close()

		jobs := cache.NewRedisJobStore(redisClient, cache.DefaultJobTTL)
		deps.Jobs = worker.NewJobQueue(asynqClient, jobs, cfg.Transcription.Timeout)
	} else {
		slog.Info("REDIS_URL not set, background transcription disabled")
	}

	// Recipe storage
	if cfg.DatabaseURL != "" {
		pool, err := utils.WithRetry(ctx, "postgres connect", func(context.Context) (*pgxpool.Pool, error) {
			// The pool outlives the attempt; NewPool bounds its own ping.
			return db.NewPool(ctx, cfg.DatabaseURL)
		}, utils.StartupRetryConfig())
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		recipes := store.NewRecipeStore(pool)
		if err := recipes.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare database schema: %v", err)
		}
		deps.Recipes = recipes
	} else {
		slog.Info("DATABASE_URL not set, recipe storage disabled")
	}

	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET not set, /api routes are unauthenticated")
	}

	router := api.NewRouter(api.NewServer(deps), api.RouterConfig{
		ServiceName:        cfg.ServiceName,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		JWTSecret:          cfg.JWTSecret,
		JWTIssuer:          cfg.JWTIssuer,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	if shutdown != nil {
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("Telemetry shutdown failed", "error", err)
		}
	}
}
