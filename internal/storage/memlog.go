// ABOUTME: Append-only markdown logs for extracted user and company memories
// ABOUTME: One file per scope, a header line, then one "- fact" bullet per entry
package storage

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/harper/recall/internal/models"
)

var memoryFiles = map[models.Scope]string{
	models.ScopeUser:    "USER_MEMORY.md",
	models.ScopeCompany: "COMPANY_MEMORY.md",
}

// MemoryLog writes memory entries to per-scope markdown files in dir
type MemoryLog struct {
	dir string
	// one lock per scope; scopes are independent files
	locks map[models.Scope]*sync.Mutex
}

// NewMemoryLog creates dir if needed. Files are created lazily on first use.
func NewMemoryLog(dir string) (*MemoryLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create memory directory: %w", err)
	}
	locks := make(map[models.Scope]*sync.Mutex, len(memoryFiles))
	for scope := range memoryFiles {
		locks[scope] = &sync.Mutex{}
	}
	return &MemoryLog{dir: dir, locks: locks}, nil
}

// Path returns the log file for scope
func (m *MemoryLog) Path(scope models.Scope) string {
	return filepath.Join(m.dir, memoryFiles[scope])
}

// Header returns the first line of scope's log, e.g. "# USER MEMORY"
func Header(scope models.Scope) string {
	name := strings.TrimSuffix(memoryFiles[scope], filepath.Ext(memoryFiles[scope]))
	return "# " + strings.ReplaceAll(name, "_", " ")
}

// Append adds "- text" to scope's log, creating the file with its header if absent.
// Newlines inside text are folded so each entry stays on one line.
func (m *MemoryLog) Append(scope models.Scope, text string) error {
	if !scope.IsValid() {
		return fmt.Errorf("unknown memory scope %q", scope)
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return errors.New("memory text is empty")
	}

	mu := m.locks[scope]
	mu.Lock()
	defer mu.Unlock()

	if err := m.ensure(scope); err != nil {
		return err
	}

	f, err := os.OpenFile(m.Path(scope), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open memory log: %w", err)
	}
	if _, err := fmt.Fprintf(f, "- %s\n", text); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append memory: %w", err)
	}
	return f.Close()
}

// ensure writes the header-only file if it does not exist yet
func (m *MemoryLog) ensure(scope models.Scope) error {
	f, err := os.OpenFile(m.Path(scope), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create memory log: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%s\n\n", Header(scope)); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write memory header: %w", err)
	}
	return f.Close()
}

// Init creates both logs with their headers
func (m *MemoryLog) Init() error {
	for _, scope := range models.Scopes {
		mu := m.locks[scope]
		mu.Lock()
		err := m.ensure(scope)
		mu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// Entries returns scope's entries in append order. A missing log has no entries.
func (m *MemoryLog) Entries(scope models.Scope) ([]models.MemoryEntry, error) {
	if !scope.IsValid() {
		return nil, fmt.Errorf("unknown memory scope %q", scope)
	}

	mu := m.locks[scope]
	mu.Lock()
	defer mu.Unlock()

	f, err := os.Open(m.Path(scope))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open memory log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []models.MemoryEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if text, ok := strings.CutPrefix(line, "- "); ok {
			entries = append(entries, models.MemoryEntry{Scope: scope, Text: text})
		}
	}
	return entries, scanner.Err()
}
