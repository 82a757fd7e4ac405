package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"moneyminder/internal/core"

	_ "modernc.org/sqlite"
)

// Repository persists transactions and their search embeddings in SQLite.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertTransaction stores one validated transaction and returns its id.
func (r *Repository) InsertTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, fmt.Errorf("validate transaction: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, description, category, amount, merchant)
		 VALUES (?, ?, ?, ?, ?)`,
		tx.Date.Format("2006-01-02"), tx.Description, tx.Category, tx.Amount, tx.Merchant)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved",
		"id", id,
		"merchant", tx.Merchant,
		"category", tx.Category,
		"amount", tx.Amount)
	return id, nil
}

// GetAll returns every transaction ordered by date, then id.
func (r *Repository) GetAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, description, category, amount, merchant
		 FROM transactions ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var tx core.Transaction
		var date string
		if err := rows.Scan(&tx.ID, &date, &tx.Description, &tx.Category, &tx.Amount, &tx.Merchant); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Date, err = core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Count returns the number of stored transactions.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// StoredEmbedding is one persisted search vector.
type StoredEmbedding struct {
	TransactionID int64
	Vector        []float32
}

// UpsertEmbedding stores or replaces the search vector of a transaction.
func (r *Repository) UpsertEmbedding(ctx context.Context, txID int64, vec []float32) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO embeddings (transaction_id, vector, dimensions, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(transaction_id) DO UPDATE SET
		   vector = excluded.vector,
		   dimensions = excluded.dimensions,
		   updated_at = CURRENT_TIMESTAMP`,
		txID, encodeVector(vec), len(vec))
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}
	return nil
}

// Embeddings returns every stored vector keyed by transaction id.
func (r *Repository) Embeddings(ctx context.Context) ([]StoredEmbedding, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT transaction_id, vector FROM embeddings`)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	var out []StoredEmbedding
	for rows.Next() {
		var e StoredEmbedding
		var blob []byte
		if err := rows.Scan(&e.TransactionID, &blob); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		e.Vector, err = decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("embedding for transaction %d: %w", e.TransactionID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}
	return out, nil
}

// MissingEmbeddings returns up to limit transactions that have no stored
// vector yet, oldest first.
func (r *Repository) MissingEmbeddings(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.date, t.description, t.category, t.amount, t.merchant
		 FROM transactions t
		 LEFT JOIN embeddings e ON e.transaction_id = t.id
		 WHERE e.transaction_id IS NULL
		 ORDER BY t.id
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unembedded transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var tx core.Transaction
		var date string
		if err := rows.Scan(&tx.ID, &date, &tx.Description, &tx.Category, &tx.Amount, &tx.Merchant); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Date, err = core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
