// ABOUTME: MCP tool handler implementations for the recall server
// ABOUTME: Tool failures are reported as error results; memory is recorded in the background
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/recall/internal/core"
	"github.com/harper/recall/internal/models"
	"github.com/harper/recall/internal/storage"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	ingestor  *core.Ingestor
	retriever *core.Retriever
	assistant *core.Assistant // nil when generation is unavailable
	memory    *storage.MemoryLog
}

// NewHandlers creates handlers over the given pipelines
func NewHandlers(ingestor *core.Ingestor, retriever *core.Retriever, assistant *core.Assistant, memory *storage.MemoryLog) *Handlers {
	return &Handlers{ingestor: ingestor, retriever: retriever, assistant: assistant, memory: memory}
}

// IngestDocument handles the ingest_document tool
func (h *Handlers) IngestDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path argument is required and must be a string"), nil
	}
	name := request.GetString("name", filepath.Base(path))

	if info, err := os.Stat(path); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot read %s: %v", path, err)), nil
	} else if info.IsDir() {
		return mcp.NewToolResultError(fmt.Sprintf("%s is a directory", path)), nil
	}

	chunks, err := h.ingestor.Ingest(ctx, path, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ingestion failed: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"source": name,
		"chunks": chunks,
	})
}

// AskQuestion handles the ask_question tool
func (h *Handlers) AskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}
	if h.assistant == nil {
		return mcp.NewToolResultError("answer generation is not configured"), nil
	}

	answer, err := h.assistant.Ask(ctx, question)
	if err != nil {
		// the degraded answer is still returned to the caller
		log.Printf("[MCP] ask_question: %v", err)
	}

	return jsonResult(answer)
}

// RetrievePassages handles the retrieve_passages tool
func (h *Handlers) RetrievePassages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	n := request.GetInt("n_results", 0)
	if n < 0 || n > 100 {
		return mcp.NewToolResultError("n_results must be 0 for the default, or at most 100"), nil
	}

	result, err := h.retriever.Retrieve(ctx, query, n)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("retrieval failed: %v", err)), nil
	}

	hits := result.Hits
	if hits == nil {
		hits = []models.Hit{}
	}
	return jsonResult(map[string]interface{}{
		"hits": hits,
	})
}

// ListMemories handles the list_memories tool
func (h *Handlers) ListMemories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scopes := models.Scopes
	if s := request.GetString("scope", ""); s != "" {
		scope, err := models.ParseScope(s)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		scopes = []models.Scope{scope}
	}

	entries := []models.MemoryEntry{}
	for _, scope := range scopes {
		scoped, err := h.memory.Entries(scope)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read %s memories: %v", scope, err)), nil
		}
		entries = append(entries, scoped...)
	}

	return jsonResult(map[string]interface{}{
		"memories": entries,
	})
}

// Shutdown waits for all pending async Scribe operations to complete
func (h *Handlers) Shutdown() {
	if h.assistant == nil {
		return
	}
	log.Println("[MCP] Waiting for pending Scribe operations to complete...")
	h.assistant.Wait()
	log.Println("[MCP] All Scribe operations completed")
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
