package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"moneyminder/internal/amqp"
	"moneyminder/internal/config"
	"moneyminder/internal/core"
	"moneyminder/internal/log"
)

// parseRow turns one CSV record (date,description,category,amount,merchant)
// into a validated transaction.
func parseRow(record []string) (core.Transaction, error) {
	if len(record) != 5 {
		return core.Transaction{}, fmt.Errorf("expected 5 columns, got %d", len(record))
	}
	date, err := core.ParseDate(strings.TrimSpace(record[0]))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date %q: %w", record[0], err)
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", record[3], err)
	}
	tx := core.Transaction{
		Date:        date,
		Description: strings.TrimSpace(record[1]),
		Category:    strings.ToLower(strings.TrimSpace(record[2])),
		Amount:      amount,
		Merchant:    strings.TrimSpace(record[4]),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func main() {
	_ = godotenv.Load()

	filePath := flag.String("file", "transactions.csv", "CSV file to publish (date,description,category,amount,merchant)")
	flag.Parse()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	f, err := os.Open(*filePath)
	if err != nil {
		logger.Error("Failed to open CSV file", log.FieldError, err.Error(), "file", *filePath)
		os.Exit(1)
	}
	defer f.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	// Skip the header row if present.
	first, err := reader.Read()
	if err != nil {
		logger.Error("Failed to read CSV", log.FieldError, err.Error(), "file", *filePath)
		os.Exit(1)
	}
	var published, skipped int
	line := 1
	if tx, err := parseRow(first); err == nil {
		if err := publish(ctx, client, tx); err != nil {
			logger.Error("Failed to publish transaction", log.FieldError, err.Error(), "line", line)
			os.Exit(1)
		}
		published++
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logger.Warn("Skipping unreadable row", log.FieldError, err.Error(), "line", line)
			skipped++
			continue
		}
		tx, err := parseRow(record)
		if err != nil {
			logger.Warn("Skipping invalid row", log.FieldError, err.Error(), "line", line)
			skipped++
			continue
		}
		if err := publish(ctx, client, tx); err != nil {
			logger.Error("Failed to publish transaction", log.FieldError, err.Error(), "line", line)
			os.Exit(1)
		}
		published++
	}

	logger.Info("Ingest complete",
		log.FieldOperation, log.OpIngest,
		"file", *filePath,
		"published", published,
		"skipped", skipped)
}

// publish sends one transaction, retrying once through a reconnect when the
// broker connection dropped mid-run.
func publish(ctx context.Context, client *amqp.Client, tx core.Transaction) error {
	msg := amqp.NewTransactionMessage(tx)
	err := client.PublishTransaction(ctx, msg)
	if err == nil {
		return nil
	}
	if rerr := client.Reconnect(ctx); rerr != nil {
		return err
	}
	return client.PublishTransaction(ctx, msg)
}
