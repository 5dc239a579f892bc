// ABOUTME: Narrow capability interfaces for embedding and text generation backends
// ABOUTME: Each provider adapter implements Embedder and/or Completer; pipelines depend only on these
package llm

import (
	"context"
	"fmt"

	"github.com/harper/recall/internal/models"
)

// EmbeddingMode selects the asymmetric embedding task
type EmbeddingMode string

const (
	// ModeDocument embeds passages for storage in the index
	ModeDocument EmbeddingMode = "RETRIEVAL_DOCUMENT"
	// ModeQuery embeds a question for nearest-neighbor search
	ModeQuery EmbeddingMode = "RETRIEVAL_QUERY"
)

// Embedder turns texts into vectors, one per input, order preserved
type Embedder interface {
	Embed(ctx context.Context, texts []string, mode EmbeddingMode) ([][]float32, error)
	ModelName() string
}

// CompletionRequest is a single-turn prompt to a language model
type CompletionRequest struct {
	System      string
	Prompt      string
	JSON        bool // request a JSON object response
	Temperature float32
	MaxTokens   int
}

// Completer produces a text completion for a prompt
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	ChatModel() string
}

// EmbedDocuments embeds passages for indexing
func EmbedDocuments(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	return embed(ctx, e, texts, ModeDocument)
}

// EmbedQuery embeds a single search query
func EmbedQuery(ctx context.Context, e Embedder, query string) ([]float32, error) {
	vectors, err := embed(ctx, e, []string{query}, ModeQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// embed wraps provider failures in an EmbeddingError and checks the response shape
func embed(ctx context.Context, e Embedder, texts []string, mode EmbeddingMode) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := e.Embed(ctx, texts, mode)
	if err != nil {
		return nil, &models.EmbeddingError{Model: e.ModelName(), Err: err}
	}
	if len(vectors) != len(texts) {
		return nil, &models.EmbeddingError{
			Model: e.ModelName(),
			Err:   fmt.Errorf("malformed response: got %d vectors for %d texts", len(vectors), len(texts)),
		}
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, &models.EmbeddingError{
				Model: e.ModelName(),
				Err:   fmt.Errorf("malformed response: empty vector at position %d", i),
			}
		}
	}
	return vectors, nil
}
