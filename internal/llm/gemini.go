// ABOUTME: Gemini adapter over the official google.golang.org/genai SDK
// ABOUTME: Supports task-typed batch embeddings and JSON-mode content generation
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/harper/recall/internal/models"
)

const (
	// DefaultGeminiEmbeddingModel is the embedding model the index is built with by default
	DefaultGeminiEmbeddingModel = "gemini-embedding-001"
	// DefaultGeminiChatModel is used for answers and memory extraction
	DefaultGeminiChatModel = "gemini-2.5-flash"

	// geminiMaxBatch is the API limit on texts per batchEmbedContents call
	geminiMaxBatch = 100
)

// GeminiConfig holds configuration for the Gemini client
type GeminiConfig struct {
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	// Endpoint overrides the API base URL (tests)
	Endpoint string
}

// GeminiClient implements Embedder and Completer
type GeminiClient struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
}

// NewGeminiClient creates a Gemini API client authenticated with an API key
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, &models.ConfigurationError{Setting: "GOOGLE_API_KEY", Err: models.ErrMissingCredential}
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultGeminiChatModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultGeminiEmbeddingModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions.BaseURL = cfg.Endpoint
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client:         client,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
	}, nil
}

// ModelName returns the embedding model id, which versions the index
func (c *GeminiClient) ModelName() string {
	return c.embeddingModel
}

// ChatModel returns the generation model id
func (c *GeminiClient) ChatModel() string {
	return c.chatModel
}

// Embed embeds texts in slices of at most 100, tagging each with the mode's task type
func (c *GeminiClient) Embed(ctx context.Context, texts []string, mode EmbeddingMode) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	config := &genai.EmbedContentConfig{TaskType: string(mode)}

	for start := 0; start < len(texts); start += geminiMaxBatch {
		end := min(start+geminiMaxBatch, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}

		resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, contents, config)
		if err != nil {
			return nil, classifyGemini(err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), end-start)
		}
		for _, e := range resp.Embeddings {
			if e == nil {
				return nil, fmt.Errorf("gemini returned a null embedding")
			}
			vectors = append(vectors, e.Values)
		}
	}

	return vectors, nil
}

// Complete runs generateContent with the prompt as a single user turn
func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(req.Temperature)
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.chatModel, genai.Text(req.Prompt), config)
	if err != nil {
		return "", classifyGemini(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		reason := "no candidates"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "blocked: " + string(resp.PromptFeedback.BlockReason)
		}
		return "", &models.ServiceError{Provider: "gemini", Err: errors.New(reason)}
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}

// classifyGemini maps genai API errors onto ServiceError
func classifyGemini(err error) error {
	if err == nil {
		return nil
	}
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	if code != 0 {
		return &models.ServiceError{
			Provider:   "gemini",
			StatusCode: code,
			Transient:  models.StatusTransient(code),
			Err:        err,
		}
	}
	return &models.ServiceError{Provider: "gemini", Transient: models.IsTransient(err), Err: err}
}
