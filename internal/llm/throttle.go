// ABOUTME: Client-side request throttling for model APIs
// ABOUTME: Token bucket per provider plus a cool-down window after a 429
package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/harper/recall/internal/models"
)

// defaultCooldown is how long to pause all calls after a rate limit response
const defaultCooldown = 5 * time.Second

// RateLimiter paces requests to a single provider
type RateLimiter struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	retryAt  time.Time
	cooldown time.Duration
}

// NewRateLimiter allows requestsPerMinute sustained with a small burst.
// A non-positive rate disables pacing but keeps the cool-down behaviour.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	limit := rate.Inf
	burst := 1
	if requestsPerMinute > 0 {
		limit = rate.Limit(float64(requestsPerMinute) / 60.0)
		burst = max(1, requestsPerMinute/10)
	}
	return &RateLimiter{
		limiter:  rate.NewLimiter(limit, burst),
		cooldown: defaultCooldown,
	}
}

// Wait blocks until a request may be sent, honouring any cool-down
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// Observe starts a cool-down when err is a 429
func (r *RateLimiter) Observe(err error) {
	var svcErr *models.ServiceError
	if !errors.As(err, &svcErr) || svcErr.StatusCode != 429 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = time.Now().Add(r.cooldown)
}

// ThrottledEmbedder paces calls to an Embedder
type ThrottledEmbedder struct {
	next    Embedder
	limiter *RateLimiter
	// Timeout bounds each call when positive
	Timeout time.Duration
}

// NewThrottledEmbedder wraps next with limiter
func NewThrottledEmbedder(next Embedder, limiter *RateLimiter) *ThrottledEmbedder {
	return &ThrottledEmbedder{next: next, limiter: limiter}
}

func (t *ThrottledEmbedder) ModelName() string { return t.next.ModelName() }

func (t *ThrottledEmbedder) Embed(ctx context.Context, texts []string, mode EmbeddingMode) ([][]float32, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, t.Timeout)
	defer cancel()
	vectors, err := t.next.Embed(ctx, texts, mode)
	t.limiter.Observe(err)
	return vectors, err
}

// ThrottledCompleter paces calls to a Completer
type ThrottledCompleter struct {
	next    Completer
	limiter *RateLimiter
	// Timeout bounds each call when positive
	Timeout time.Duration
}

// NewThrottledCompleter wraps next with limiter
func NewThrottledCompleter(next Completer, limiter *RateLimiter) *ThrottledCompleter {
	return &ThrottledCompleter{next: next, limiter: limiter}
}

func (t *ThrottledCompleter) ChatModel() string { return t.next.ChatModel() }

func (t *ThrottledCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}
	ctx, cancel := withTimeout(ctx, t.Timeout)
	defer cancel()
	text, err := t.next.Complete(ctx, req)
	t.limiter.Observe(err)
	return text, err
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
