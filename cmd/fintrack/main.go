package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/ai"
	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/pipeline"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateServer)

	ctx := context.Background()
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	seed, err := storage.LoadSeed(cfg.CategorySeedFile)
	if err != nil {
		logger.Error("Failed to load category seed", log.FieldError, err, "path", cfg.CategorySeedFile)
		os.Exit(1)
	}
	if err := repo.SeedCategories(ctx, seed); err != nil {
		logger.Error("Failed to seed categories", log.FieldError, err)
		os.Exit(1)
	}

	m := metrics.New()

	gemini, err := ai.NewGeminiClient(ctx, ai.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.InferenceTimeout,
		BaseURL: cfg.GeminiEndpoint,
	}, m, logger)
	if err != nil {
		logger.Error("Failed to initialize Gemini client", log.FieldError, err)
		os.Exit(1)
	}

	// Events are optional; without AMQP_URL expenses are only stored locally.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		publisher = client
		logger.Info("Expense events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Expense events disabled - no AMQP_URL provided")
	}
	expenses := services.NewExpenseService(repo, publisher, m, logger)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	resolver := auth.NewResolver(jwtManager, repo, 1000, time.Minute)

	caches := cache.NewManager(logger)
	caches.Register(resolver.Cache())
	caches.StartCleanup(5 * time.Minute)

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerWindow: cfg.RateLimit,
		Window:            time.Minute,
	})

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:           auth.NewPasswordAuthenticator(repo),
		Tokens:         jwtManager,
		Users:          resolver,
		Scanner:        pipeline.NewExtractor(gemini, repo, expenses, m, logger),
		Advisor:        pipeline.NewAdvisor(gemini, resolver, repo, repo, repo, m, logger),
		Expenses:       expenses,
		Store:          repo,
		Metrics:        m,
		Logger:         logger,
		Limiter:        limiter,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	// Scans wait on the model, so the write timeout covers a full inference.
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 2*cfg.InferenceTimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if err := expenses.Close(); err != nil {
			logger.Error("Failed to close event publisher", log.FieldError, err)
		}
	})

	logger.Info("Starting fintrack server", "port", cfg.Port, "model", cfg.GeminiModel)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
