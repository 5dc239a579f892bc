// ABOUTME: Vector index operations for SQLite
// ABOUTME: Stores chunk vectors as BLOBs and ranks by cosine distance in process
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/harper/recall/internal/models"
)

// Index is a named collection inside a SQLite database
type Index struct {
	db         *DB
	collection string
	model      string

	mu  sync.Mutex
	dim int
}

// OpenIndex opens (or registers) collection for embedding model.
// A collection built with a different model fails with models.ErrIndexModelMismatch.
func OpenIndex(ctx context.Context, db *DB, collection, model string) (*Index, error) {
	var (
		storedModel string
		dim         int
	)
	err := db.QueryRowContext(ctx,
		`SELECT embedding_model, dimension FROM collections WHERE name = ?`, collection,
	).Scan(&storedModel, &dim)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx,
			`INSERT INTO collections (name, embedding_model, dimension, created_at) VALUES (?, ?, 0, ?)`,
			collection, model, time.Now(),
		); err != nil {
			return nil, fmt.Errorf("failed to create collection: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read collection: %w", err)
	case storedModel != model:
		return nil, fmt.Errorf("%w: collection %q was built with %s, configured model is %s",
			models.ErrIndexModelMismatch, collection, storedModel, model)
	}

	return &Index{db: db, collection: collection, model: model, dim: dim}, nil
}

// Dimension returns the collection's vector dimension, 0 before the first upsert
func (ix *Index) Dimension() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.dim
}

// Upsert writes the whole batch in one transaction or nothing
func (ix *Index) Upsert(ctx context.Context, batch models.UpsertBatch) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	dim, err := batch.Validate(ix.dim)
	if err != nil {
		return err
	}
	if batch.Len() == 0 {
		return nil
	}

	tx, err := ix.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if ix.dim == 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE collections SET dimension = ? WHERE name = ?`, dim, ix.collection,
		); err != nil {
			return fmt.Errorf("failed to set collection dimension: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (collection, id, document, source, chunk_index, vector, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			document = excluded.document,
			source = excluded.source,
			chunk_index = excluded.chunk_index,
			vector = excluded.vector,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now()
	for i, id := range batch.IDs {
		meta := batch.Metadatas[i]
		if _, err := stmt.ExecContext(ctx,
			ix.collection, id, batch.Documents[i], meta.Source, meta.ChunkIndex, vectorToBlob(batch.Vectors[i]), now,
		); err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}
	ix.dim = dim
	return nil
}

// Query returns up to n entries by ascending cosine distance, ties broken by id
func (ix *Index) Query(ctx context.Context, vector []float32, n int) (models.RetrievalResult, error) {
	ix.mu.Lock()
	dim := ix.dim
	ix.mu.Unlock()

	if n <= 0 || dim == 0 {
		return models.RetrievalResult{}, nil
	}
	if len(vector) != dim {
		return models.RetrievalResult{}, &models.IndexValidationError{Reason: fmt.Sprintf(
			"query dimension %d does not match collection dimension %d", len(vector), dim)}
	}

	rows, err := ix.db.QueryContext(ctx, `
		SELECT id, document, source, chunk_index, vector
		FROM chunks
		WHERE collection = ?
	`, ix.collection)
	if err != nil {
		return models.RetrievalResult{}, fmt.Errorf("failed to scan chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []models.Hit
	for rows.Next() {
		var (
			hit  models.Hit
			blob []byte
		)
		if err := rows.Scan(&hit.ID, &hit.Text, &hit.Metadata.Source, &hit.Metadata.ChunkIndex, &blob); err != nil {
			return models.RetrievalResult{}, err
		}
		hit.Distance = 1 - CosineSimilarity(vector, blobToVector(blob))
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return models.RetrievalResult{}, err
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > n {
		hits = hits[:n]
	}
	return models.RetrievalResult{Hits: hits}, nil
}

// Prune deletes source's chunks with chunk_index >= keep
func (ix *Index) Prune(ctx context.Context, source string, keep int) (int, error) {
	res, err := ix.db.ExecContext(ctx,
		`DELETE FROM chunks WHERE collection = ? AND source = ? AND chunk_index >= ?`,
		ix.collection, source, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Count returns the number of chunks in the collection
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := ix.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE collection = ?`, ix.collection,
	).Scan(&n)
	return n, err
}

// Entries returns every stored chunk ordered by source then chunk index
func (ix *Index) Entries(ctx context.Context) ([]models.Chunk, error) {
	rows, err := ix.db.QueryContext(ctx, `
		SELECT id, document, source, chunk_index
		FROM chunks
		WHERE collection = ?
		ORDER BY source, chunk_index
	`, ix.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []models.Chunk
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.ID, &c.Text, &c.Source, &c.ChunkIndex); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Close closes the underlying database
func (ix *Index) Close() error {
	return ix.db.Close()
}

// DropCollection removes a collection and all of its chunks
func DropCollection(ctx context.Context, db *DB, collection string) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return tx.Commit()
}

// vectorToBlob converts a float32 slice to a little-endian blob
func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// blobToVector converts a little-endian blob to a float32 slice
func blobToVector(blob []byte) []float32 {
	count := len(blob) / 4
	vector := make([]float32, count)
	for i := 0; i < count; i++ {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

// CosineSimilarity calculates cosine similarity between two vectors
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dotProduct += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
