// ABOUTME: Tests for the reset command
// ABOUTME: Resetting a missing index succeeds and memory files survive a reset

package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReset_MissingIndex(t *testing.T) {
	isolate(t)

	out, err := run(t, "reset", "--yes")
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if !strings.Contains(out, `"rag_docs"`) {
		t.Errorf("expected collection name in output, got %q", out)
	}
}

func TestReset_KeepsMemories(t *testing.T) {
	dir := isolate(t)

	if _, err := run(t, "memory", "add", "user", "Likes tea"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "reset", "--yes"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "memory", "USER_MEMORY.md")); err != nil {
		t.Errorf("memory file should survive reset: %v", err)
	}
}
