// ABOUTME: Directory watcher that keeps the index in step with a folder of documents
// ABOUTME: Debounces fsnotify events per file; writes re-ingest and removals drop the source
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/harper/recall/internal/parser"
)

// DefaultDebounce is how long a file must be quiet before it is ingested
const DefaultDebounce = 500 * time.Millisecond

// Sink receives the index updates the watcher decides on
type Sink interface {
	Ingest(ctx context.Context, path, source string) (int, error)
	Remove(ctx context.Context, source string) (int, error)
}

type actionKind int

const (
	actionIngest actionKind = iota
	actionRemove
)

type action struct {
	kind   actionKind
	path   string
	source string
}

// Watcher ingests supported files in one directory as they change
type Watcher struct {
	dir      string
	sink     Sink
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a watcher for dir. A non-positive debounce uses DefaultDebounce.
func New(dir string, sink Sink, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		sink:     sink,
		debounce: debounce,
		pending:  make(map[string]*time.Timer),
	}
}

// Scan ingests every supported file already in the directory
func (w *Watcher) Scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", w.dir, err)
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() || hidden(entry.Name()) || !parser.Supported(entry.Name()) {
			continue
		}
		w.apply(ctx, action{kind: actionIngest, path: filepath.Join(w.dir, entry.Name()), source: entry.Name()})
	}
	return nil
}

// Run watches until ctx is cancelled, then waits for in-flight updates
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	log.Printf("[Watch] Watching %s", w.dir)

	defer w.drain()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if act, ok := w.handleEvent(event); ok {
				w.schedule(ctx, act)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("[Watch] Error: %v", err)
		}
	}
}

// handleEvent maps a filesystem event onto an index update, if any
func (w *Watcher) handleEvent(event fsnotify.Event) (action, bool) {
	name := filepath.Base(event.Name)
	if hidden(name) || !parser.Supported(name) {
		return action{}, false
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return action{kind: actionRemove, path: event.Name, source: name}, true
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return action{}, false
		}
		return action{kind: actionIngest, path: event.Name, source: name}, true
	}
	return action{}, false
}

// schedule replaces any pending update for the same path
func (w *Watcher) schedule(ctx context.Context, act action) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[act.path]; ok && t.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[act.path] == timer {
			delete(w.pending, act.path)
		}
		w.mu.Unlock()
		w.apply(ctx, act)
	})
	w.pending[act.path] = timer
}

func (w *Watcher) apply(ctx context.Context, act action) {
	switch act.kind {
	case actionIngest:
		n, err := w.sink.Ingest(ctx, act.path, act.source)
		if err != nil {
			log.Printf("[Watch] %s: %v", act.source, err)
			return
		}
		log.Printf("[Watch] Ingested %s (%d chunks)", act.source, n)
	case actionRemove:
		n, err := w.sink.Remove(ctx, act.source)
		if err != nil {
			log.Printf("[Watch] %s: %v", act.source, err)
			return
		}
		if n > 0 {
			log.Printf("[Watch] Removed %s (%d chunks)", act.source, n)
		}
	}
}

// drain cancels updates that have not started and waits for running ones
func (w *Watcher) drain() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
