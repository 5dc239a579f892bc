// ABOUTME: Scribe agent that records memories from interactions in the background
// ABOUTME: Failures are logged and never surface to the user's chat turn
package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/harper/recall/internal/models"
	"github.com/harper/recall/internal/storage"
)

// scribeTimeout bounds one background extraction including its retries
const scribeTimeout = 5 * time.Minute

// Scribe extracts memories and appends them to the memory log
type Scribe struct {
	extractor *MemoryExtractor
	log       *storage.MemoryLog
	wg        sync.WaitGroup
}

// NewScribe creates a Scribe writing to memLog
func NewScribe(extractor *MemoryExtractor, memLog *storage.MemoryLog) *Scribe {
	return &Scribe{extractor: extractor, log: memLog}
}

// Record extracts memories from interaction and appends each non-empty one to its scope
func (s *Scribe) Record(ctx context.Context, interaction models.Interaction) ([]models.MemoryEntry, error) {
	memories, err := s.extractor.Extract(ctx, interaction)
	if err != nil {
		return nil, err
	}

	var recorded []models.MemoryEntry
	var errs []error
	for _, entry := range memories.Entries() {
		if err := s.log.Append(entry.Scope, entry.Text); err != nil {
			errs = append(errs, fmt.Errorf("append %s memory: %w", entry.Scope, err))
			continue
		}
		log.Printf("[Memory] Writing to %s Memory: %s", scopeLabel(entry.Scope), entry.Text)
		recorded = append(recorded, entry)
	}
	return recorded, errors.Join(errs...)
}

// RecordAsync runs Record in a goroutine (fire-and-forget). Use Wait to drain.
func (s *Scribe) RecordAsync(interaction models.Interaction) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), scribeTimeout)
		defer cancel()
		if _, err := s.Record(ctx, interaction); err != nil {
			log.Printf("[Scribe] Error recording memories: %v", err)
		}
	}()
}

// Wait blocks until all background recordings finish
func (s *Scribe) Wait() {
	s.wg.Wait()
}

// Log returns the memory log the scribe writes to
func (s *Scribe) Log() *storage.MemoryLog {
	return s.log
}

func scopeLabel(scope models.Scope) string {
	switch scope {
	case models.ScopeUser:
		return "User"
	case models.ScopeCompany:
		return "Company"
	}
	return string(scope)
}
