// ABOUTME: chromem-go backed vector index, an embedded alternative to SQLite
// ABOUTME: Collection names carry the embedding model and dimension so versions never mix
package chromem

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/harper/recall/internal/models"
)

const (
	metaSource     = "source"
	metaChunkIndex = "chunk_index"
	// separates base name, model, and dimension in a stored collection name
	nameSep = "__"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Index is one logical collection in a persistent chromem database
type Index struct {
	db    *chromem.DB
	base  string
	model string

	mu  sync.Mutex
	col *chromem.Collection
	dim int
}

// errNoEmbed is returned if chromem ever tries to embed on our behalf
var errNoEmbed = errors.New("embeddings are computed by the caller")

func noEmbed(ctx context.Context, text string) ([]float32, error) {
	return nil, errNoEmbed
}

// Open opens the chromem database under dir and binds collection to model.
// A stored version of collection for another model fails with models.ErrIndexModelMismatch.
func Open(dir, collection, model string) (*Index, error) {
	db, err := chromem.NewPersistentDB(dir, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open chromem database: %w", err)
	}

	ix := &Index{db: db, base: collection, model: sanitize(model)}

	for name := range db.ListCollections() {
		base, storedModel, dim, ok := parseName(name)
		if !ok || base != collection {
			continue
		}
		if storedModel != ix.model {
			return nil, fmt.Errorf("%w: collection %q was built with %s, configured model is %s",
				models.ErrIndexModelMismatch, collection, storedModel, ix.model)
		}
		ix.col = db.GetCollection(name, noEmbed)
		ix.dim = dim
	}

	return ix, nil
}

// Dimension returns the collection's vector dimension, 0 before the first upsert
func (ix *Index) Dimension() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.dim
}

// Upsert validates the whole batch first; chromem replaces documents that share an id
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

	if ix.col == nil {
		col, err := ix.db.GetOrCreateCollection(collectionName(ix.base, ix.model, dim), nil, noEmbed)
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		ix.col = col
		ix.dim = dim
		log.Printf("[Index] created chromem collection %s (dim %d)", col.Name, dim)
	}

	docs := make([]chromem.Document, batch.Len())
	for i, id := range batch.IDs {
		meta := batch.Metadatas[i]
		docs[i] = chromem.Document{
			ID:      id,
			Content: batch.Documents[i],
			// chromem normalizes in place, so hand it a copy
			Embedding: append([]float32(nil), batch.Vectors[i]...),
			Metadata: map[string]string{
				metaSource:     meta.Source,
				metaChunkIndex: strconv.Itoa(meta.ChunkIndex),
			},
		}
	}

	if err := ix.col.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Query returns up to n nearest entries; distance is 1 - cosine similarity
func (ix *Index) Query(ctx context.Context, vector []float32, n int) (models.RetrievalResult, error) {
	ix.mu.Lock()
	col, dim := ix.col, ix.dim
	ix.mu.Unlock()

	if col == nil || n <= 0 {
		return models.RetrievalResult{}, nil
	}
	if len(vector) != dim {
		return models.RetrievalResult{}, &models.IndexValidationError{Reason: fmt.Sprintf(
			"query dimension %d does not match collection dimension %d", len(vector), dim)}
	}

	// chromem requires nResults <= collection size
	count := col.Count()
	if count == 0 {
		return models.RetrievalResult{}, nil
	}
	n = min(n, count)

	results, err := col.QueryEmbedding(ctx, append([]float32(nil), vector...), n, nil, nil)
	if err != nil {
		return models.RetrievalResult{}, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]models.Hit, 0, len(results))
	for _, r := range results {
		idx, _ := strconv.Atoi(r.Metadata[metaChunkIndex])
		hits = append(hits, models.Hit{
			ID:   r.ID,
			Text: r.Content,
			Metadata: models.ChunkMetadata{
				Source:     r.Metadata[metaSource],
				ChunkIndex: idx,
			},
			Distance: 1 - float64(r.Similarity),
		})
	}
	return models.RetrievalResult{Hits: hits}, nil
}

// Entries returns every stored chunk ordered by source then chunk index.
// chromem has no scan, so this ranks the whole collection against a unit vector.
func (ix *Index) Entries(ctx context.Context) ([]models.Chunk, error) {
	ix.mu.Lock()
	col, dim := ix.col, ix.dim
	ix.mu.Unlock()

	if col == nil || dim == 0 || col.Count() == 0 {
		return nil, nil
	}

	probe := make([]float32, dim)
	probe[0] = 1
	results, err := col.QueryEmbedding(ctx, probe, col.Count(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem scan: %w", err)
	}

	chunks := make([]models.Chunk, 0, len(results))
	for _, r := range results {
		idx, _ := strconv.Atoi(r.Metadata[metaChunkIndex])
		chunks = append(chunks, models.Chunk{
			ID:         r.ID,
			Text:       r.Content,
			Source:     r.Metadata[metaSource],
			ChunkIndex: idx,
		})
	}
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].Source != chunks[j].Source {
			return chunks[i].Source < chunks[j].Source
		}
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})
	return chunks, nil
}

// Prune deletes source's chunks from index keep upward. Chunk ids are
// deterministic and contiguous, so it walks ids until one is missing.
func (ix *Index) Prune(ctx context.Context, source string, keep int) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.col == nil {
		return 0, nil
	}

	var stale []string
	for i := keep; ; i++ {
		id := models.ChunkID(source, i)
		if _, err := ix.col.GetByID(ctx, id); err != nil {
			break
		}
		stale = append(stale, id)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	if err := ix.col.Delete(ctx, nil, nil, stale...); err != nil {
		return 0, fmt.Errorf("failed to prune chunks: %w", err)
	}
	return len(stale), nil
}

// Count returns the number of documents in the collection
func (ix *Index) Count(ctx context.Context) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.col == nil {
		return 0, nil
	}
	return ix.col.Count(), nil
}

// Close is a no-op; chromem persists each write as it happens
func (ix *Index) Close() error {
	return nil
}

// Drop deletes every stored version of collection under dir
func Drop(dir, collection string) error {
	db, err := chromem.NewPersistentDB(dir, true)
	if err != nil {
		return fmt.Errorf("failed to open chromem database: %w", err)
	}
	for name := range db.ListCollections() {
		if base, _, _, ok := parseName(name); ok && base == collection {
			if err := db.DeleteCollection(name); err != nil {
				return fmt.Errorf("failed to delete collection %s: %w", name, err)
			}
		}
	}
	return nil
}

func sanitize(model string) string {
	s := unsafeChars.ReplaceAllString(model, "-")
	for strings.Contains(s, nameSep) {
		s = strings.ReplaceAll(s, nameSep, "_")
	}
	return s
}

func collectionName(base, model string, dim int) string {
	return strings.Join([]string{base, model, strconv.Itoa(dim)}, nameSep)
}

// parseName splits base__model__dim; base itself may contain the separator
func parseName(name string) (base, model string, dim int, ok bool) {
	parts := strings.Split(name, nameSep)
	if len(parts) < 3 {
		return "", "", 0, false
	}
	dim, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || dim <= 0 {
		return "", "", 0, false
	}
	model = parts[len(parts)-2]
	base = strings.Join(parts[:len(parts)-2], nameSep)
	return base, model, dim, true
}
