// ABOUTME: Retry policy with capped exponential backoff for model API calls
// ABOUTME: Shared by answer generation and memory extraction so budgets are data
package util

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Policy describes how many times to try an operation and how long to wait between tries
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	// Jitter spreads each delay by up to ±25%
	Jitter bool
}

// GenerationPolicy fails fast: answer generation is on the user-visible path
var GenerationPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   time.Second,
	MaxDelay:    10 * time.Second,
	Multiplier:  2,
}

// ExtractionPolicy is more patient: memory extraction runs after the answer is delivered
var ExtractionPolicy = Policy{
	MaxAttempts: 5,
	BaseDelay:   2 * time.Second,
	MaxDelay:    60 * time.Second,
	Multiplier:  2,
}

// Validate checks the policy can make progress
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay < 0 || p.MaxDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if p.Multiplier < 1 {
		return fmt.Errorf("multiplier must be >= 1, got %f", p.Multiplier)
	}
	return nil
}

// Backoff returns the wait before retry number attempt (1 = first retry).
// The delay is BaseDelay * Multiplier^(attempt-1), capped at MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt <= 0 || p.BaseDelay <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	delay := float64(p.BaseDelay) * math.Pow(mult, float64(attempt-1))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	backoff := time.Duration(delay)
	if p.Jitter && backoff > 0 {
		// -25% to +25% using auto-seeded math/rand/v2
		backoff += time.Duration(rand.Int64N(int64(backoff)/2+1)) - backoff/4
	}
	return backoff
}

// Retry runs op until it succeeds, returns a non-retryable error, or the policy is exhausted.
// It returns the number of attempts made alongside the last error.
func Retry(ctx context.Context, p Policy, retryable func(error) bool, op func(ctx context.Context) error) (int, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, p.Backoff(attempt-1)); err != nil {
				return attempt - 1, lastErr
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return attempt, nil
		}
		if retryable != nil && !retryable(lastErr) {
			return attempt, lastErr
		}
	}

	return attempts, lastErr
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
