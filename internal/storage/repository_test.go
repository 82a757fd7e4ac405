package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"moneyminder/internal/core"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestInsertAndGetAll(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	first := core.Transaction{
		Date:        time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
		Description: "Groceries",
		Category:    "food",
		Amount:      54.30,
		Merchant:    "Whole Foods",
	}
	second := core.Transaction{
		Date:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Description: "Gas",
		Category:    "transport",
		Amount:      45.00,
		Merchant:    "Shell",
	}
	for _, tx := range []core.Transaction{first, second} {
		if _, err := repo.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].Merchant != "Shell" || got[1].Merchant != "Whole Foods" {
		t.Fatalf("expected date order, got %+v", got)
	}
	if got[0].ID == 0 || got[1].ID == 0 {
		t.Fatalf("ids must be assigned")
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("expected count 2, got %d (%v)", n, err)
	}
}

func TestInsertRejectsInvalid(t *testing.T) {
	repo := testRepo(t)
	bad := core.Transaction{
		Date:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Description: "Mystery",
		Category:    "misc",
		Amount:      1,
		Merchant:    "m",
	}
	if _, err := repo.InsertTransaction(context.Background(), bad); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestEmbeddingRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	tx := core.Transaction{
		Date:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Description: "Coffee",
		Category:    "food",
		Amount:      4.75,
		Merchant:    "Starbucks",
	}
	id, err := repo.InsertTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	missing, err := repo.MissingEmbeddings(ctx, 10)
	if err != nil || len(missing) != 1 || missing[0].ID != id {
		t.Fatalf("expected one unembedded row, got %+v (%v)", missing, err)
	}

	vec := []float32{0.1, -0.5, 0.25}
	if err := repo.UpsertEmbedding(ctx, id, vec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	stored, err := repo.Embeddings(ctx)
	if err != nil || len(stored) != 1 {
		t.Fatalf("expected one embedding, got %+v (%v)", stored, err)
	}
	if stored[0].TransactionID != id || len(stored[0].Vector) != 3 || stored[0].Vector[1] != -0.5 {
		t.Fatalf("unexpected embedding: %+v", stored[0])
	}

	// Replace and make sure the missing set is empty.
	if err := repo.UpsertEmbedding(ctx, id, []float32{1, 2, 3, 4}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	stored, _ = repo.Embeddings(ctx)
	if len(stored[0].Vector) != 4 {
		t.Fatalf("upsert must replace the vector, got %+v", stored[0])
	}
	missing, _ = repo.MissingEmbeddings(ctx, 10)
	if len(missing) != 0 {
		t.Fatalf("expected no unembedded rows, got %+v", missing)
	}
}

func TestVectorCodec(t *testing.T) {
	vec := []float32{0, 1.5, -2.25, 3e7}
	decoded, err := decodeVector(encodeVector(vec))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range vec {
		if decoded[i] != vec[i] {
			t.Fatalf("index %d: expected %v, got %v", i, vec[i], decoded[i])
		}
	}

	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for truncated blob")
	}
}
