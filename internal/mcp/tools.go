// ABOUTME: MCP tool definitions and registration for the recall server
// ABOUTME: Exposes document ingestion, question answering, passage search, and memory listing
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/recall/internal/core"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, engine *core.Engine) *Handlers {
	handlers := NewHandlers(engine.Ingestor, engine.Retriever, engine.Assistant, engine.Memory)

	// 1. ingest_document - parse, chunk, and index a local file
	server.AddTool(mcp.Tool{
		Name:        "ingest_document",
		Description: "Ingest a local PDF, text, or markdown file into the document index. Re-ingesting a file replaces its previous chunks.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the file to ingest",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Source name to cite the document by (default: the file's base name)",
				},
			},
			Required: []string{"path"},
		},
	}, handlers.IngestDocument)

	// 2. ask_question - answer grounded in the indexed documents
	server.AddTool(mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question using only passages retrieved from the indexed documents. Returns the answer with citations.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "The question to answer",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.AskQuestion)

	// 3. retrieve_passages - raw nearest-neighbor search
	server.AddTool(mcp.Tool{
		Name:        "retrieve_passages",
		Description: "Search the document index and return the nearest passages without generating an answer.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"n_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of passages to return (default: 3)",
					"default":     core.DefaultNResults,
				},
			},
			Required: []string{"query"},
		},
	}, handlers.RetrievePassages)

	// 4. list_memories - read back the memory logs
	server.AddTool(mcp.Tool{
		Name:        "list_memories",
		Description: "List remembered facts about the user and the company.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scope": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"user", "company"},
					"description": "Only list one scope (default: both)",
				},
			},
		},
	}, handlers.ListMemories)

	return handlers
}
