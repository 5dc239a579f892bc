// ABOUTME: Tests for backend selection, shared index behaviour, and reset
// ABOUTME: Runs the same contract checks against SQLite and chromem-go
package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/harper/recall/internal/models"
)

var backends = []string{BackendSQLite, BackendChromem}

func batchFor(source string, texts []string, vectors [][]float32) models.UpsertBatch {
	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.NewChunk(source, i, text)
	}
	return models.BatchFromChunks(chunks, vectors)
}

func TestOpenIndex_Contract(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			opts := Options{Backend: backend, Dir: t.TempDir(), Collection: "rag_docs", EmbeddingModel: "test-model"}

			ix, err := OpenIndex(ctx, opts)
			if err != nil {
				t.Fatalf("OpenIndex() error = %v", err)
			}

			if err := ix.Upsert(ctx, batchFor("doc.txt", []string{"secret BlueJay", "weather"},
				[][]float32{{1, 0, 0}, {0, 1, 0}})); err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}
			res, err := ix.Query(ctx, []float32{1, 0.2, 0}, 1)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(res.Hits) != 1 || res.Hits[0].Text != "secret BlueJay" {
				t.Errorf("unexpected hits %+v", res.Hits)
			}
			if err := ix.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			// persisted across reopen
			ix, err = OpenIndex(ctx, opts)
			if err != nil {
				t.Fatalf("reopen error = %v", err)
			}
			if n, _ := ix.Count(ctx); n != 2 {
				t.Errorf("Count() after reopen = %d, want 2", n)
			}
			_ = ix.Close()

			other := opts
			other.EmbeddingModel = "other-model"
			if _, err := OpenIndex(ctx, other); !errors.Is(err, models.ErrIndexModelMismatch) {
				t.Errorf("expected ErrIndexModelMismatch, got %v", err)
			}

			if err := ResetIndex(ctx, opts); err != nil {
				t.Fatalf("ResetIndex() error = %v", err)
			}
			ix, err = OpenIndex(ctx, other)
			if err != nil {
				t.Fatalf("OpenIndex() after reset error = %v", err)
			}
			defer func() { _ = ix.Close() }()
			if n, _ := ix.Count(ctx); n != 0 {
				t.Errorf("Count() after reset = %d, want 0", n)
			}
		})
	}
}

func TestResetIndex_MissingStore(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			opts := Options{Backend: backend, Dir: t.TempDir(), Collection: "rag_docs", EmbeddingModel: "m"}
			if err := ResetIndex(context.Background(), opts); err != nil {
				t.Errorf("ResetIndex() on empty dir error = %v", err)
			}
		})
	}
}

func TestOpenIndex_BadOptions(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown backend", Options{Backend: "redis", Dir: dir, Collection: "c", EmbeddingModel: "m"}},
		{"no collection", Options{Backend: BackendSQLite, Dir: dir, EmbeddingModel: "m"}},
		{"no model", Options{Backend: BackendSQLite, Dir: dir, Collection: "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := OpenIndex(ctx, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestIndex_Entries(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			ix, err := OpenIndex(ctx, Options{Backend: backend, Dir: t.TempDir(), Collection: "rag_docs", EmbeddingModel: "test-model"})
			if err != nil {
				t.Fatalf("OpenIndex() error = %v", err)
			}
			defer func() { _ = ix.Close() }()

			entries, err := ix.Entries(ctx)
			if err != nil || len(entries) != 0 {
				t.Fatalf("empty index Entries() = %v, %v", entries, err)
			}

			if err := ix.Upsert(ctx, batchFor("b.txt", []string{"b0", "b1"}, [][]float32{{0, 1}, {1, 1}})); err != nil {
				t.Fatal(err)
			}
			if err := ix.Upsert(ctx, batchFor("a.txt", []string{"a0"}, [][]float32{{1, 0}})); err != nil {
				t.Fatal(err)
			}

			entries, err = ix.Entries(ctx)
			if err != nil {
				t.Fatalf("Entries() error = %v", err)
			}
			want := []string{"a0", "b0", "b1"}
			if len(entries) != len(want) {
				t.Fatalf("got %d entries, want %d", len(entries), len(want))
			}
			for i, e := range entries {
				if e.Text != want[i] {
					t.Errorf("entry %d = %q, want %q", i, e.Text, want[i])
				}
				if e.ID != models.ChunkID(e.Source, e.ChunkIndex) {
					t.Errorf("entry %d id does not match its source and index", i)
				}
			}
		})
	}
}
