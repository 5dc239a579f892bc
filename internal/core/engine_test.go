// ABOUTME: Tests for assembling the engine from configuration
// ABOUTME: Credential and window errors must surface before any index or network access
package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/harper/recall/internal/config"
	"github.com/harper/recall/internal/models"
)

func TestOpenEngine_MissingCredential(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.MemoryDir = cfg.DataDir
	cfg.GoogleAPIKey = ""

	_, err := OpenEngine(context.Background(), cfg, false)
	var cfgErr *models.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Setting != "GOOGLE_API_KEY" {
		t.Fatalf("expected GOOGLE_API_KEY configuration error, got %v", err)
	}
	if !errors.Is(err, models.ErrMissingCredential) {
		t.Errorf("expected ErrMissingCredential, got %v", err)
	}
	if _, statErr := os.Stat(cfg.DataDir); !os.IsNotExist(statErr) {
		t.Errorf("no data should be written before credentials are checked")
	}
}

func TestOpenEngine_InvalidWindow(t *testing.T) {
	cfg := config.Default()
	cfg.ChunkSize = 100
	cfg.ChunkOverlap = 100

	_, err := OpenEngine(context.Background(), cfg, false)
	if !errors.Is(err, models.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestIndexOptions(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = "/tmp/recall"
	cfg.IndexBackend = config.BackendChromem

	opts := IndexOptions(cfg, "gemini-embedding-001")
	if opts.Backend != "chromem" || opts.Dir != "/tmp/recall" || opts.Collection != "rag_docs" || opts.EmbeddingModel != "gemini-embedding-001" {
		t.Errorf("unexpected options: %+v", opts)
	}
}
