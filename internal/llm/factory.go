// ABOUTME: Builds configured Embedder and Completer instances
// ABOUTME: Checks credentials before any network call and shares one rate limiter per provider
package llm

import (
	"context"
	"fmt"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/recall/internal/config"
)

// Factory constructs provider clients from configuration
type Factory struct {
	cfg *config.Config

	mu       sync.Mutex
	limiters map[string]*RateLimiter
	caches   []*CachedEmbedder
}

// NewFactory creates a factory for cfg
func NewFactory(cfg *config.Config) *Factory {
	return &Factory{cfg: cfg, limiters: make(map[string]*RateLimiter)}
}

func (f *Factory) limiter(provider string) *RateLimiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.limiters[provider]; ok {
		return l
	}
	l := NewRateLimiter(f.cfg.RequestsPerMinute)
	f.limiters[provider] = l
	return l
}

// EmbeddingModel resolves the embedding model id that versions the index.
// The gemini default id is never sent to another provider.
func EmbeddingModel(cfg *config.Config) string {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		if cfg.EmbeddingModel == "" || cfg.EmbeddingModel == DefaultGeminiEmbeddingModel {
			return string(DefaultEmbeddingModel)
		}
	case config.ProviderGemini:
		if cfg.EmbeddingModel == "" {
			return DefaultGeminiEmbeddingModel
		}
	}
	return cfg.EmbeddingModel
}

// Embedder returns the configured embedding backend, throttled and query-cached
func (f *Factory) Embedder(ctx context.Context) (Embedder, error) {
	provider := f.cfg.EmbeddingProvider
	if err := f.cfg.RequireCredential(provider); err != nil {
		return nil, err
	}

	var base Embedder
	switch provider {
	case config.ProviderGemini:
		c, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:         f.cfg.GoogleAPIKey,
			EmbeddingModel: f.cfg.EmbeddingModel,
		})
		if err != nil {
			return nil, err
		}
		base = c
	case config.ProviderOpenAI:
		cc := DefaultConfig(f.cfg.OpenAIKey)
		cc.EmbeddingModel = openai.EmbeddingModel(EmbeddingModel(f.cfg))
		c, err := NewOpenAIClientWithConfig(cc)
		if err != nil {
			return nil, err
		}
		base = c
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", provider)
	}

	throttled := NewThrottledEmbedder(base, f.limiter(provider))
	throttled.Timeout = f.cfg.Timeout
	cached, err := NewCachedEmbedder(throttled, f.cfg.QueryCacheSize)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.caches = append(f.caches, cached)
	f.mu.Unlock()
	return cached, nil
}

// Completer returns the configured generation backend, throttled
func (f *Factory) Completer(ctx context.Context) (Completer, error) {
	provider := f.cfg.GenerationProvider
	if err := f.cfg.RequireCredential(provider); err != nil {
		return nil, err
	}

	var base Completer
	switch provider {
	case config.ProviderGemini:
		c, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:    f.cfg.GoogleAPIKey,
			ChatModel: f.cfg.ChatModel,
		})
		if err != nil {
			return nil, err
		}
		base = c
	case config.ProviderOpenAI:
		cc := DefaultConfig(f.cfg.OpenAIKey)
		if f.cfg.ChatModel != "" && f.cfg.ChatModel != DefaultGeminiChatModel {
			cc.ChatModel = f.cfg.ChatModel
		}
		c, err := NewOpenAIClientWithConfig(cc)
		if err != nil {
			return nil, err
		}
		base = c
	case config.ProviderAnthropic:
		model := f.cfg.ChatModel
		if model == DefaultGeminiChatModel {
			model = ""
		}
		c, err := NewAnthropicClient(AnthropicConfig{APIKey: f.cfg.AnthropicAPIKey, ChatModel: model})
		if err != nil {
			return nil, err
		}
		base = c
	default:
		return nil, fmt.Errorf("unsupported generation provider %q", provider)
	}

	throttled := NewThrottledCompleter(base, f.limiter(provider))
	throttled.Timeout = f.cfg.Timeout
	return throttled, nil
}

// Close releases cache resources
func (f *Factory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.caches {
		c.Close()
	}
	f.caches = nil
}
