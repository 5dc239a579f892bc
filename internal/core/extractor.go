// ABOUTME: Memory extractor that asks the model for durable facts from one interaction
// ABOUTME: Expects a JSON object with user_memory and company_memory; anything else yields nothing
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/harper/recall/internal/llm"
	"github.com/harper/recall/internal/models"
	"github.com/harper/recall/internal/util"
)

const extractionInstructions = `You are a memory extraction assistant. Analyze the interaction between a user and an assistant and extract durable facts worth remembering.

Return ONLY a JSON object with exactly two string fields:
- user_memory: a fact about the user themselves (for example "User is a Project Manager"), or "" if none
- company_memory: a fact about the company, its projects, or its tools (for example "Project Finance uses tool X"), or "" if none

Do not repeat facts that only restate the documents. Do not include anything else in the response.`

// MemoryExtractor distills interactions into memories
type MemoryExtractor struct {
	completer llm.Completer
	policy    util.Policy
}

// NewMemoryExtractor creates an extractor retrying transient failures per policy
func NewMemoryExtractor(completer llm.Completer, policy util.Policy) *MemoryExtractor {
	return &MemoryExtractor{completer: completer, policy: policy}
}

// Extract returns the memories found in interaction. A response that is not the
// expected JSON object is logged and produces empty memories with a nil error.
func (e *MemoryExtractor) Extract(ctx context.Context, interaction models.Interaction) (models.ExtractedMemories, error) {
	if strings.TrimSpace(interaction.Query) == "" {
		return models.ExtractedMemories{}, nil
	}

	req := llm.CompletionRequest{
		System:      extractionInstructions,
		Prompt:      fmt.Sprintf("User: %s\nAssistant: %s", interaction.Query, interaction.Answer),
		JSON:        true,
		Temperature: 0.2,
	}

	var content string
	_, err := util.Retry(ctx, e.policy, models.IsTransient, func(ctx context.Context) error {
		var err error
		content, err = e.completer.Complete(ctx, req)
		return err
	})
	if err != nil {
		return models.ExtractedMemories{}, fmt.Errorf("memory extraction failed: %w", err)
	}

	memories, err := ParseExtraction(content)
	if err != nil {
		log.Printf("[Scribe] Ignoring extraction response: %v", err)
		return models.ExtractedMemories{}, nil
	}
	return memories, nil
}

// ParseExtraction decodes a model response into memories. Markdown code fences are tolerated.
func ParseExtraction(content string) (models.ExtractedMemories, error) {
	content = stripFence(strings.TrimSpace(content))

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return models.ExtractedMemories{}, fmt.Errorf("%w: %v", models.ErrExtractionParse, err)
	}

	var memories models.ExtractedMemories
	for key, dst := range map[string]*string{
		"user_memory":    &memories.UserMemory,
		"company_memory": &memories.CompanyMemory,
	} {
		value, ok := raw[key]
		if !ok || string(value) == "null" {
			continue
		}
		if err := json.Unmarshal(value, dst); err != nil {
			return models.ExtractedMemories{}, fmt.Errorf("%w: %s is not a string", models.ErrExtractionParse, key)
		}
	}
	return memories, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
