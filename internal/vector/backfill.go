package vector

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"moneyminder/internal/core"
)

// BackfillSource provides the unembedded transactions and accepts their
// computed vectors.
type BackfillSource interface {
	MissingEmbeddings(ctx context.Context, limit int) ([]core.Transaction, error)
	UpsertEmbedding(ctx context.Context, txID int64, vec []float32) error
}

// Backfill embeds one batch of transactions that have no stored vector yet,
// running up to concurrency embeddings in parallel. It returns how many
// vectors were written.
func Backfill(ctx context.Context, source BackfillSource, embedder Embedder, batchSize, concurrency int) (int, error) {
	txs, err := source.MissingEmbeddings(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("load unembedded transactions: %w", err)
	}
	if len(txs) == 0 {
		return 0, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, tx := range txs {
		g.Go(func() error {
			vec, err := embedder.Embed(ctx, tx.SearchText())
			if err != nil {
				return fmt.Errorf("embed transaction %d: %w", tx.ID, err)
			}
			if err := source.UpsertEmbedding(ctx, tx.ID, vec); err != nil {
				return fmt.Errorf("store embedding %d: %w", tx.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Embedding backfill batch completed", "embedded", len(txs))
	return len(txs), nil
}
