package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneyminder/internal/agent"
	"moneyminder/internal/analytics"
	"moneyminder/internal/cache"
	"moneyminder/internal/config"
	"moneyminder/internal/display"
	apphttp "moneyminder/internal/http"
	"moneyminder/internal/log"
	"moneyminder/internal/storage"
	"moneyminder/internal/vector"
)

// trimmedAnswerer caps how much chat history reaches the model.
type trimmedAnswerer struct {
	pipeline *agent.Pipeline
	limit    int
}

func (a *trimmedAnswerer) Answer(ctx context.Context, qctx agent.QueryContext, question string, history []agent.Turn) agent.Result {
	if a.limit > 0 && len(history) > a.limit {
		history = history[len(history)-a.limit:]
	}
	return a.pipeline.Answer(ctx, qctx, question, history)
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting moneyminder")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize repository", log.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := agent.NewGeminiClient(context.Background(), cfg.GeminiAPIKey)
	if err != nil {
		logger.Error("Failed to initialize Gemini client", log.FieldError, err.Error())
		os.Exit(1)
	}

	embedder := vector.NewGeminiEmbedder(client, cfg.GeminiEmbedModel)
	store := vector.NewStore(repo, embedder)

	cacheManager := cache.NewManager()
	cacheManager.Register(store.QueryCache())
	cacheManager.StartCleanup(5 * time.Minute)
	defer cacheManager.Stop()

	engine := analytics.NewEngine(repo, store, nil)
	pipeline := agent.NewPipeline(
		agent.NewGemini(client, cfg.GeminiModel),
		agent.NewExecutor(engine),
		display.NewRegistry(),
		logger,
		cfg.MaxToolRounds,
	)
	answerer := &trimmedAnswerer{pipeline: pipeline, limit: cfg.HistoryLimit}

	srv := apphttp.NewServer(":"+cfg.Port, answerer, repo, logger)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 120 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		cancel()
	}()

	logger.Info("Starting moneyminder server",
		"port", cfg.Port,
		"model", cfg.GeminiModel,
		"db_path", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
