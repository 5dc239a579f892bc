// ABOUTME: Query-embedding cache so repeated questions skip the embedding API
// ABOUTME: Backed by ristretto; document-mode calls always pass through
package llm

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// CachedEmbedder memoizes single-text QUERY embeddings
type CachedEmbedder struct {
	next  Embedder
	cache *ristretto.Cache
}

// NewCachedEmbedder caches up to maxEntries query vectors
func NewCachedEmbedder(next Embedder, maxEntries int64) (*CachedEmbedder, error) {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}
	return &CachedEmbedder{next: next, cache: cache}, nil
}

func (c *CachedEmbedder) ModelName() string { return c.next.ModelName() }

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string, mode EmbeddingMode) ([][]float32, error) {
	if mode != ModeQuery || len(texts) != 1 {
		return c.next.Embed(ctx, texts, mode)
	}

	key := c.next.ModelName() + "\x00" + texts[0]
	if v, ok := c.cache.Get(key); ok {
		if vec, ok := v.([]float32); ok {
			return [][]float32{vec}, nil
		}
	}

	vectors, err := c.next.Embed(ctx, texts, mode)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 1 {
		c.cache.Set(key, vectors[0], 1)
	}
	return vectors, nil
}

// Flush blocks until pending cache writes are applied
func (c *CachedEmbedder) Flush() {
	c.cache.Wait()
}

// Close releases the cache's background goroutines
func (c *CachedEmbedder) Close() {
	c.cache.Close()
}
