package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneyminder/internal/agent"
	"moneyminder/internal/amqp"
	"moneyminder/internal/config"
	"moneyminder/internal/log"
	"moneyminder/internal/storage"
	"moneyminder/internal/vector"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting moneyminder-worker")

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

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Consume ingest messages into the ledger.
	go func() {
		handler := func(ctx context.Context, msg *amqp.TransactionMessage) error {
			tx, err := msg.ToTransaction()
			if err != nil {
				// Malformed payload, never retryable.
				logger.WarnContext(ctx, "Dropping invalid transaction message",
					log.FieldError, err.Error(),
					log.FieldMerchant, msg.Merchant)
				return nil
			}
			id, err := repo.InsertTransaction(ctx, tx)
			if err != nil {
				return err
			}
			logger.InfoContext(ctx, "Transaction ingested",
				log.FieldOperation, log.OpIngest,
				log.FieldTransactionID, id,
				log.FieldCategory, tx.Category)
			return nil
		}
		if err := amqpClient.ConsumeTransactions(ctx, handler); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", log.FieldError, err.Error())
			}
			cancel()
		}
	}()

	// Embed new transactions so they become visible to semantic search.
	go func() {
		ticker := time.NewTicker(cfg.EmbedInterval)
		defer ticker.Stop()

		runBackfill := func() {
			for {
				n, err := vector.Backfill(ctx, repo, embedder, cfg.IngestBatchSize, cfg.EmbedConcurrency)
				if err != nil {
					if ctx.Err() == nil {
						logger.Error("Embedding backfill failed",
							log.FieldOperation, log.OpEmbed,
							log.FieldError, err.Error())
					}
					return
				}
				if n < cfg.IngestBatchSize {
					return
				}
			}
		}

		// Catch up on anything missed while the worker was down.
		runBackfill()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runBackfill()
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Give in-flight handlers a moment to finish
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
