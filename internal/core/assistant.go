// ABOUTME: Assistant is the orchestration boundary for one question and answer turn
// ABOUTME: Applies the empty-context policy, degrades on failure, and hands turns to the Scribe
package core

import (
	"context"
	"log"

	"github.com/harper/recall/internal/models"
)

const (
	// NoRelevantInformation is returned without calling the generator when retrieval finds nothing
	NoRelevantInformation = "I couldn't find any relevant information in the indexed documents."

	// DegradedAnswer is shown when retrieval or generation fails
	DegradedAnswer = "Error generating response. Check your API credentials and try again."
)

// Answer is the rendered result of one turn
type Answer struct {
	Question  string               `json:"question"`
	Text      string               `json:"text"`
	Citations []models.Citation    `json:"citations,omitempty"`
	Grounded  bool                 `json:"grounded"`
	Degraded  bool                 `json:"degraded,omitempty"`
	Memories  []models.MemoryEntry `json:"memories,omitempty"`
}

// Assistant answers questions from the index and optionally learns from each turn
type Assistant struct {
	retriever *Retriever
	generator *AnswerGenerator
	scribe    *Scribe
	// SyncMemory records memories before Ask returns and reports them on the Answer
	SyncMemory bool
}

// NewAssistant creates an Assistant. A nil scribe disables memory extraction.
func NewAssistant(retriever *Retriever, generator *AnswerGenerator, scribe *Scribe) *Assistant {
	return &Assistant{retriever: retriever, generator: generator, scribe: scribe}
}

// Ask answers question. When retrieval or generation fails the returned Answer
// carries DegradedAnswer and the error is returned alongside it. Memories are
// extracted only after a generated answer.
func (a *Assistant) Ask(ctx context.Context, question string) (*Answer, error) {
	answer := &Answer{Question: question}

	result, err := a.retriever.Retrieve(ctx, question, 0)
	if err != nil {
		answer.Text = DegradedAnswer
		answer.Degraded = true
		return answer, err
	}

	// canned answers carry nothing worth remembering
	if result.Empty() {
		answer.Text = NoRelevantInformation
		return answer, nil
	}

	text, err := a.generator.Generate(ctx, question, result.Passages())
	if err != nil {
		answer.Text = DegradedAnswer
		answer.Degraded = true
		return answer, err
	}
	answer.Text = text
	answer.Grounded = true
	answer.Citations = result.Citations()

	interaction := models.Interaction{Query: question, Answer: answer.Text}
	if a.SyncMemory {
		answer.Memories = a.RecordInteraction(ctx, interaction)
	} else {
		a.RecordInteractionAsync(interaction)
	}
	return answer, nil
}

// RecordInteraction extracts and stores memories now. Failures are logged, not returned.
func (a *Assistant) RecordInteraction(ctx context.Context, interaction models.Interaction) []models.MemoryEntry {
	if a.scribe == nil {
		return nil
	}
	entries, err := a.scribe.Record(ctx, interaction)
	if err != nil {
		log.Printf("[Scribe] Error recording memories: %v", err)
	}
	return entries
}

// RecordInteractionAsync hands the interaction to the Scribe in the background
func (a *Assistant) RecordInteractionAsync(interaction models.Interaction) {
	if a.scribe == nil {
		return
	}
	a.scribe.RecordAsync(interaction)
}

// Wait blocks until background memory recording has finished
func (a *Assistant) Wait() {
	if a.scribe != nil {
		a.scribe.Wait()
	}
}

// MemoryEnabled reports whether turns are handed to a Scribe
func (a *Assistant) MemoryEnabled() bool {
	return a.scribe != nil
}
