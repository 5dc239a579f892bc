// ABOUTME: VectorIndex interface and backend selection for the document index
// ABOUTME: Opens or resets a named, path-scoped collection on SQLite or chromem-go
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harper/recall/internal/models"
	"github.com/harper/recall/internal/storage/chromem"
	"github.com/harper/recall/internal/storage/sqlite"
)

// Backend names
const (
	BackendSQLite  = "sqlite"
	BackendChromem = "chromem"
)

// VectorIndex is a persistent collection of (id, vector, text, metadata) entries
type VectorIndex interface {
	// Upsert inserts or replaces entries by id; a malformed batch writes nothing
	Upsert(ctx context.Context, batch models.UpsertBatch) error
	// Query returns up to n nearest entries by ascending distance
	Query(ctx context.Context, vector []float32, n int) (models.RetrievalResult, error)
	// Prune removes source's entries with chunk_index >= keep
	Prune(ctx context.Context, source string, keep int) (int, error)
	// Entries lists every chunk ordered by source then chunk index
	Entries(ctx context.Context) ([]models.Chunk, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Options selects a backend and names the collection
type Options struct {
	Backend        string
	Dir            string
	Collection     string
	EmbeddingModel string
}

func (o Options) sqlitePath() string  { return filepath.Join(o.Dir, sqlite.DBFile) }
func (o Options) chromemPath() string { return filepath.Join(o.Dir, "chromem") }

// OpenIndex opens the collection, failing with models.ErrIndexModelMismatch
// when it was built by a different embedding model
func OpenIndex(ctx context.Context, opts Options) (VectorIndex, error) {
	if opts.Collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if opts.EmbeddingModel == "" {
		return nil, fmt.Errorf("embedding model is required to version the index")
	}

	switch opts.Backend {
	case BackendSQLite, "":
		db, err := sqlite.Open(opts.sqlitePath())
		if err != nil {
			return nil, err
		}
		ix, err := sqlite.OpenIndex(ctx, db, opts.Collection, opts.EmbeddingModel)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return ix, nil
	case BackendChromem:
		return chromem.Open(opts.chromemPath(), opts.Collection, opts.EmbeddingModel)
	}
	return nil, fmt.Errorf("unknown index backend %q", opts.Backend)
}

// ResetIndex drops every version of the collection. A missing store is not an error.
func ResetIndex(ctx context.Context, opts Options) error {
	switch opts.Backend {
	case BackendSQLite, "":
		if _, err := os.Stat(opts.sqlitePath()); os.IsNotExist(err) {
			return nil
		}
		db, err := sqlite.Open(opts.sqlitePath())
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return sqlite.DropCollection(ctx, db, opts.Collection)
	case BackendChromem:
		if _, err := os.Stat(opts.chromemPath()); os.IsNotExist(err) {
			return nil
		}
		return chromem.Drop(opts.chromemPath(), opts.Collection)
	}
	return fmt.Errorf("unknown index backend %q", opts.Backend)
}
