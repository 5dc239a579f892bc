// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents like Claude to query documents via stdio
package commands

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/recall/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs recall as an MCP (Model Context Protocol) server, enabling
LLM agents like Claude to ingest documents, ask grounded questions,
search passages, and read memories via stdio.

Configure in Claude Desktop's config file to enable the tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  recall mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "recall": {
  #       "command": "recall",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol; logs go to stderr
	if !quiet {
		log.SetOutput(os.Stderr)
	}

	ctx, stop := signalContext()
	defer stop()

	engine, err := openEngine(ctx, true, nil)
	if err != nil {
		return err
	}

	server := mcpserver.NewMCPServer(
		"recall",
		versionInfo.Version,
	)

	// Register MCP tools and get handlers for shutdown
	handlers := mcp.RegisterTools(server, engine)

	log.Println("[MCP] recall server starting on stdio...")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		log.Println("[MCP] Shutdown signal received, gracefully shutting down...")
	case err = <-serverErr:
	}

	handlers.Shutdown()
	if closeErr := engine.Close(); closeErr != nil {
		log.Printf("[MCP] Warning: Error closing index: %v", closeErr)
	}
	log.Println("[MCP] Shutdown complete")

	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
