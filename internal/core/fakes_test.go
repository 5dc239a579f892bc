// ABOUTME: Deterministic stand-ins for the embedding and generation services
// ABOUTME: The embedder hashes words into buckets so texts sharing words land close together
package core

import (
	"context"
	"errors"
	"hash/fnv"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"

	"github.com/harper/recall/internal/llm"
	"github.com/harper/recall/internal/models"
	"github.com/harper/recall/internal/storage"
	"github.com/harper/recall/internal/util"
)

const hashDim = 256

// fastPolicy keeps retry tests quick while preserving attempt counts
var fastPolicy = util.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond, Multiplier: 2}

func rateLimited() error {
	return &models.ServiceError{Provider: "fake", StatusCode: 429, Transient: true, Err: errors.New("rate limited")}
}

func unauthorized() error {
	return &models.ServiceError{Provider: "fake", StatusCode: 401, Err: errors.New("bad key")}
}

type hashEmbedder struct {
	mu       sync.Mutex
	calls    int
	modes    []llm.EmbeddingMode
	failures []error
}

func (h *hashEmbedder) ModelName() string { return "hash-bow" }

func (h *hashEmbedder) Embed(ctx context.Context, texts []string, mode llm.EmbeddingMode) ([][]float32, error) {
	h.mu.Lock()
	h.calls++
	h.modes = append(h.modes, mode)
	if len(h.failures) > 0 {
		err := h.failures[0]
		h.failures = h.failures[1:]
		h.mu.Unlock()
		return nil, err
	}
	h.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = bagOfWords(t)
	}
	return out, nil
}

func (h *hashEmbedder) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func bagOfWords(text string) []float32 {
	v := make([]float32, hashDim)
	// constant bias keeps every vector non-zero
	v[hashDim-1] = 0.01
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%(hashDim-1)]++
	}
	return v
}

type scriptedCompleter struct {
	mu       sync.Mutex
	requests []llm.CompletionRequest
	respond  func(req llm.CompletionRequest, call int) (string, error)
}

func (s *scriptedCompleter) ChatModel() string { return "scripted" }

func (s *scriptedCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	call := len(s.requests)
	s.mu.Unlock()
	return s.respond(req, call)
}

func (s *scriptedCompleter) calls() []llm.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.CompletionRequest(nil), s.requests...)
}

func openTestIndex(t *testing.T) storage.VectorIndex {
	t.Helper()
	ix, err := storage.OpenIndex(context.Background(), storage.Options{
		Backend:        storage.BackendSQLite,
		Dir:            filepath.Join(t.TempDir(), "data"),
		Collection:     "rag_docs",
		EmbeddingModel: "hash-bow",
	})
	if err != nil {
		t.Fatalf("OpenIndex failed: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func newTestIngestor(t *testing.T, embedder llm.Embedder, index storage.VectorIndex) *Ingestor {
	t.Helper()
	chunker, err := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}
	return NewIngestor(chunker, embedder, index, fastPolicy)
}
