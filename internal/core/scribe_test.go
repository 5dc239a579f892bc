// ABOUTME: Tests for the Scribe memory recorder
// ABOUTME: Checks appended log lines and that background work drains on Wait
package core

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/harper/recall/internal/llm"
	"github.com/harper/recall/internal/models"
	"github.com/harper/recall/internal/storage"
)

func memoryCompleter(user, company string) *scriptedCompleter {
	return &scriptedCompleter{respond: func(req llm.CompletionRequest, call int) (string, error) {
		return `{"user_memory": "` + user + `", "company_memory": "` + company + `"}`, nil
	}}
}

func lastLine(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	return lines[len(lines)-1]
}

func TestScribe_Record(t *testing.T) {
	memLog, err := storage.NewMemoryLog(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := NewScribe(NewMemoryExtractor(memoryCompleter("X is a PM", ""), fastPolicy), memLog)

	entries, err := s.Record(context.Background(), models.Interaction{Query: "I'm X, a PM", Answer: "Hello X"})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Scope != models.ScopeUser {
		t.Fatalf("expected one user entry, got %+v", entries)
	}

	if got := lastLine(t, memLog.Path(models.ScopeUser)); got != "- X is a PM" {
		t.Errorf("expected last line %q, got %q", "- X is a PM", got)
	}
	if _, err := os.Stat(memLog.Path(models.ScopeCompany)); !os.IsNotExist(err) {
		t.Errorf("company log should not be created for an empty memory")
	}
}

func TestScribe_RecordAsync(t *testing.T) {
	memLog, err := storage.NewMemoryLog(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := NewScribe(NewMemoryExtractor(memoryCompleter("", "Project Finance uses tool X"), fastPolicy), memLog)

	for i := 0; i < 3; i++ {
		s.RecordAsync(models.Interaction{Query: "which tool?", Answer: "tool X"})
	}
	s.Wait()

	entries, err := memLog.Entries(models.ScopeCompany)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 appended entries, got %d", len(entries))
	}
}
