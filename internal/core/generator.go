// ABOUTME: Answer generator that grounds the model in retrieved passages
// ABOUTME: Transient failures are retried with capped exponential backoff
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harper/recall/internal/llm"
	"github.com/harper/recall/internal/models"
	"github.com/harper/recall/internal/util"
)

// InsufficientInformation is the phrase the model is told to use when the passages do not answer
const InsufficientInformation = "I don't have enough information to answer that."

// ErrNoPassages is returned when Generate is called without context
var ErrNoPassages = errors.New("no context passages supplied")

const groundingInstructions = `You are a helpful assistant. Answer the user's question based ONLY on the provided context.
If the answer is not in the context, say "` + InsufficientInformation + `"`

// AnswerGenerator turns a question plus passages into an answer
type AnswerGenerator struct {
	completer llm.Completer
	policy    util.Policy
}

// NewAnswerGenerator creates a generator retrying per policy
func NewAnswerGenerator(completer llm.Completer, policy util.Policy) *AnswerGenerator {
	return &AnswerGenerator{completer: completer, policy: policy}
}

// BuildPrompt composes the user prompt; passages are separated by blank lines
func BuildPrompt(query string, passages []string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(strings.Join(passages, "\n\n"))
	b.WriteString("\n\nUser Question: ")
	b.WriteString(query)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

// Generate answers query from passages ("Source: X\nContent: Y" strings).
// Failures are returned as *models.GenerationError carrying the attempt count.
func (g *AnswerGenerator) Generate(ctx context.Context, query string, passages []string) (string, error) {
	if len(passages) == 0 {
		return "", ErrNoPassages
	}

	req := llm.CompletionRequest{
		System:      groundingInstructions,
		Prompt:      BuildPrompt(query, passages),
		Temperature: 0.2,
	}

	var answer string
	attempts, err := util.Retry(ctx, g.policy, models.IsTransient, func(ctx context.Context) error {
		out, err := g.completer.Complete(ctx, req)
		if err != nil {
			return err
		}
		answer = strings.TrimSpace(out)
		return nil
	})
	if err != nil {
		return "", &models.GenerationError{Attempts: attempts, Err: err}
	}
	return answer, nil
}

// Model returns the generation model id
func (g *AnswerGenerator) Model() string {
	return g.completer.ChatModel()
}

func (g *AnswerGenerator) String() string {
	return fmt.Sprintf("AnswerGenerator(%s)", g.completer.ChatModel())
}
