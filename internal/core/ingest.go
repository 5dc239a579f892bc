// ABOUTME: Ingestion pipeline: parse, chunk, embed in document mode, upsert
// ABOUTME: Re-ingesting a source overwrites its chunks by id and prunes any left over
package core

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/harper/recall/internal/llm"
	"github.com/harper/recall/internal/models"
	"github.com/harper/recall/internal/parser"
	"github.com/harper/recall/internal/storage"
	"github.com/harper/recall/internal/util"
)

// embedBatchSize bounds texts per embedding request
const embedBatchSize = 100

// Ingestor feeds documents into the vector index
type Ingestor struct {
	chunker  *Chunker
	embedder llm.Embedder
	index    storage.VectorIndex
	policy   util.Policy
}

// NewIngestor creates an ingestion pipeline. Transient embedding failures are retried per policy.
func NewIngestor(chunker *Chunker, embedder llm.Embedder, index storage.VectorIndex, policy util.Policy) *Ingestor {
	return &Ingestor{chunker: chunker, embedder: embedder, index: index, policy: policy}
}

// Ingest reads the file at path and indexes it under filename.
// Parse failures are returned as *models.IngestionError.
func (in *Ingestor) Ingest(ctx context.Context, path, filename string) (int, error) {
	text, err := parser.ExtractText(path, filename)
	if err != nil {
		return 0, err
	}
	return in.IngestText(ctx, filename, text)
}

// IngestText chunks, embeds, and upserts text under source. Empty text indexes nothing.
func (in *Ingestor) IngestText(ctx context.Context, source, text string) (int, error) {
	chunks := in.chunker.Chunks(source, text)

	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}

		vectors, err := in.embed(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("failed to embed %s: %w", source, err)
		}

		// one upsert per document so a rejected batch leaves the prior version intact
		if err := in.index.Upsert(ctx, models.BatchFromChunks(chunks, vectors)); err != nil {
			return 0, fmt.Errorf("failed to index %s: %w", source, err)
		}
	}

	removed, err := in.index.Prune(ctx, source, len(chunks))
	if err != nil {
		return len(chunks), fmt.Errorf("failed to prune stale chunks for %s: %w", source, err)
	}
	if removed > 0 {
		log.Printf("[Ingest] %s: removed %d stale chunks", source, removed)
	}

	return len(chunks), nil
}

func (in *Ingestor) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		batch := texts[start:min(start+embedBatchSize, len(texts))]

		var out [][]float32
		_, err := util.Retry(ctx, in.policy, models.IsTransient, func(ctx context.Context) error {
			var err error
			out, err = llm.EmbedDocuments(ctx, in.embedder, batch)
			return err
		})
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, out...)
	}
	return vectors, nil
}

// FileResult is the outcome of ingesting one file in a batch
type FileResult struct {
	Path   string
	Source string
	Chunks int
	Err    error
}

// IngestFiles ingests each path under its base name. A failing file does not stop the batch.
func (in *Ingestor) IngestFiles(ctx context.Context, paths []string) []FileResult {
	results := make([]FileResult, 0, len(paths))
	for _, path := range paths {
		if ctx.Err() != nil {
			results = append(results, FileResult{Path: path, Source: filepath.Base(path), Err: ctx.Err()})
			continue
		}
		source := filepath.Base(path)
		n, err := in.Ingest(ctx, path, source)
		if err != nil {
			log.Printf("[Ingest] %s: %v", source, err)
		}
		results = append(results, FileResult{Path: path, Source: source, Chunks: n, Err: err})
	}
	return results
}

// Remove deletes every chunk of source from the index
func (in *Ingestor) Remove(ctx context.Context, source string) (int, error) {
	removed, err := in.index.Prune(ctx, source, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to remove %s: %w", source, err)
	}
	return removed, nil
}
