// ABOUTME: Anthropic Messages API adapter for answer generation and memory extraction
// ABOUTME: Claude has no embeddings endpoint, so this implements Completer only
package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/harper/recall/internal/models"
)

const (
	// DefaultAnthropicModel is used when no chat model is configured
	DefaultAnthropicModel = "claude-sonnet-4-5"
	defaultMaxTokens      = 1024
)

// AnthropicConfig holds configuration for the Anthropic client
type AnthropicConfig struct {
	APIKey    string
	ChatModel string
	BaseURL   string
}

// AnthropicClient implements Completer
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClient creates a client for the Messages API
func NewAnthropicClient(cfg AnthropicConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, &models.ConfigurationError{Setting: "ANTHROPIC_API_KEY", Err: models.ErrMissingCredential}
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultAnthropicModel
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	// retries are owned by the calling pipeline's policy
	opts = append(opts, option.WithMaxRetries(0))

	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		model:  cfg.ChatModel,
	}, nil
}

// ChatModel returns the chat model id
func (c *AnthropicClient) ChatModel() string {
	return c.model
}

// Complete sends a single user message. JSON mode is expressed in the system prompt.
func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	system := req.System
	if req.JSON {
		system = strings.TrimSpace(system + "\n\nRespond with a single JSON object and nothing else.")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyAnthropic(err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", &models.ServiceError{Provider: "anthropic", Err: errors.New("response contained no text")}
	}
	return b.String(), nil
}

// classifyAnthropic maps SDK errors onto ServiceError
func classifyAnthropic(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		// 529 is Anthropic's overloaded status
		transient := models.StatusTransient(apiErr.StatusCode) || apiErr.StatusCode == 529
		return &models.ServiceError{
			Provider:   "anthropic",
			StatusCode: apiErr.StatusCode,
			Transient:  transient,
			Err:        err,
		}
	}
	return &models.ServiceError{Provider: "anthropic", Transient: models.IsTransient(err), Err: err}
}
