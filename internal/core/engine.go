// ABOUTME: Engine assembles the pipelines from configuration for the CLI, MCP server, and watcher
// ABOUTME: Opens the index versioned by the embedding model and owns every resource it opens
package core

import (
	"context"
	"fmt"

	"github.com/harper/recall/internal/config"
	"github.com/harper/recall/internal/llm"
	"github.com/harper/recall/internal/storage"
)

// Engine bundles the configured pipelines
type Engine struct {
	Config    *config.Config
	Index     storage.VectorIndex
	Ingestor  *Ingestor
	Retriever *Retriever
	Memory    *storage.MemoryLog

	// EmbeddingModel is the model that versions the open index
	EmbeddingModel string

	// Assistant is nil unless the engine was opened with generation
	Assistant *Assistant

	factory *llm.Factory
}

// IndexOptions maps configuration onto index options for the given embedding model
func IndexOptions(cfg *config.Config, embeddingModel string) storage.Options {
	return storage.Options{
		Backend:        cfg.IndexBackend,
		Dir:            cfg.DataDir,
		Collection:     cfg.Collection,
		EmbeddingModel: embeddingModel,
	}
}

// OpenEngine builds the ingestion and retrieval pipelines. When withGeneration is
// set the generation credential is checked too and an Assistant is attached.
func OpenEngine(ctx context.Context, cfg *config.Config, withGeneration bool) (*Engine, error) {
	chunker, err := NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	factory := llm.NewFactory(cfg)
	embedder, err := factory.Embedder(ctx)
	if err != nil {
		factory.Close()
		return nil, err
	}

	var completer llm.Completer
	if withGeneration {
		completer, err = factory.Completer(ctx)
		if err != nil {
			factory.Close()
			return nil, err
		}
	}

	index, err := storage.OpenIndex(ctx, IndexOptions(cfg, embedder.ModelName()))
	if err != nil {
		factory.Close()
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	memLog, err := storage.NewMemoryLog(cfg.MemoryDir)
	if err != nil {
		_ = index.Close()
		factory.Close()
		return nil, err
	}

	genPolicy := cfg.GenerationRetry.Policy()
	e := &Engine{
		Config:         cfg,
		Index:          index,
		Ingestor:       NewIngestor(chunker, embedder, index, genPolicy),
		Retriever:      NewRetriever(embedder, index, cfg.NResults, genPolicy),
		Memory:         memLog,
		EmbeddingModel: embedder.ModelName(),
		factory:        factory,
	}

	if completer != nil {
		var scribe *Scribe
		if cfg.MemoryEnabled {
			scribe = NewScribe(NewMemoryExtractor(completer, cfg.ExtractionRetry.Policy()), memLog)
		}
		e.Assistant = NewAssistant(e.Retriever, NewAnswerGenerator(completer, genPolicy), scribe)
	}
	return e, nil
}

// Export snapshots the index and both memory logs
func (e *Engine) Export(ctx context.Context) (*storage.ExportData, error) {
	return storage.Export(ctx, storage.ExportSource{
		Index:          e.Index,
		Memory:         e.Memory,
		Collection:     e.Config.Collection,
		EmbeddingModel: e.EmbeddingModel,
	})
}

// Close waits for background memory work, then releases the index and caches
func (e *Engine) Close() error {
	if e.Assistant != nil {
		e.Assistant.Wait()
	}
	err := e.Index.Close()
	e.factory.Close()
	return err
}
