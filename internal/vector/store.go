package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"moneyminder/internal/analytics"
	"moneyminder/internal/cache"
	"moneyminder/internal/core"
	"moneyminder/internal/storage"
)

const (
	queryCacheSize = 256
	queryCacheTTL  = 10 * time.Minute
)

// Source provides the transactions and stored vectors a search ranks over.
type Source interface {
	GetAll(ctx context.Context) ([]core.Transaction, error)
	Embeddings(ctx context.Context) ([]storage.StoredEmbedding, error)
}

// Store ranks transactions by cosine similarity between the query embedding
// and each transaction's stored embedding. Query embeddings are cached so
// repeated questions skip the embedding API.
type Store struct {
	source   Source
	embedder Embedder
	queries  *cache.LRUCache[[]float32]
}

func NewStore(source Source, embedder Embedder) *Store {
	return &Store{
		source:   source,
		embedder: embedder,
		queries:  cache.NewLRUCache[[]float32](queryCacheSize, queryCacheTTL),
	}
}

// QueryCache exposes the embedding cache for lifecycle management.
func (s *Store) QueryCache() *cache.LRUCache[[]float32] {
	return s.queries
}

// Search implements analytics.Searcher. Transactions without a stored
// embedding are invisible to search until the backfill catches up.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]analytics.ScoredTransaction, error) {
	if limit <= 0 {
		return nil, nil
	}

	qvec, ok := s.queries.Get(query)
	if !ok {
		var err error
		qvec, err = s.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		s.queries.Set(query, qvec)
	}

	txs, err := s.source.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	stored, err := s.source.Embeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}

	byID := make(map[int64]core.Transaction, len(txs))
	for _, tx := range txs {
		byID[tx.ID] = tx
	}

	hits := make([]analytics.ScoredTransaction, 0, len(stored))
	for _, e := range stored {
		tx, ok := byID[e.TransactionID]
		if !ok {
			continue
		}
		hits = append(hits, analytics.ScoredTransaction{
			Transaction: tx,
			Score:       Cosine(qvec, e.Vector),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Cosine computes cosine similarity. Mismatched or zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
