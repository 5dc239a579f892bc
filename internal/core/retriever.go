// ABOUTME: Retrieval pipeline: embed the question in query mode and search the index
// ABOUTME: Returns the raw ranked result; an empty result means no grounding is available
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/recall/internal/llm"
	"github.com/harper/recall/internal/models"
	"github.com/harper/recall/internal/storage"
	"github.com/harper/recall/internal/util"
)

// DefaultNResults is how many passages a question retrieves by default
const DefaultNResults = 3

// Retriever finds passages for a question
type Retriever struct {
	embedder llm.Embedder
	index    storage.VectorIndex
	nResults int
	policy   util.Policy
}

// NewRetriever creates a retrieval pipeline returning nResults passages by default
func NewRetriever(embedder llm.Embedder, index storage.VectorIndex, nResults int, policy util.Policy) *Retriever {
	if nResults <= 0 {
		nResults = DefaultNResults
	}
	return &Retriever{embedder: embedder, index: index, nResults: nResults, policy: policy}
}

// Retrieve returns up to n passages (the default when n <= 0) ranked by distance.
// No relevance threshold is applied.
func (r *Retriever) Retrieve(ctx context.Context, query string, n int) (models.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return models.RetrievalResult{}, nil
	}
	if n <= 0 {
		n = r.nResults
	}

	var vector []float32
	_, err := util.Retry(ctx, r.policy, models.IsTransient, func(ctx context.Context) error {
		var err error
		vector, err = llm.EmbedQuery(ctx, r.embedder, query)
		return err
	})
	if err != nil {
		return models.RetrievalResult{}, fmt.Errorf("failed to embed query: %w", err)
	}

	result, err := r.index.Query(ctx, vector, n)
	if err != nil {
		return models.RetrievalResult{}, fmt.Errorf("failed to query index: %w", err)
	}
	return result, nil
}
