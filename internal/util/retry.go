// ABOUTME: Retry utilities for embedding API calls with exponential backoff
// ABOUTME: Shared by the backend and OpenAI fetchers for consistent retry behavior
package util

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// MaxBackoff caps a single retry delay
const MaxBackoff = 30 * time.Second

// CalculateBackoff returns exponential backoff with jitter
// Base delay is doubled each attempt, with random jitter up to 25%
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	// Cap attempt to avoid overflow in bit shift (max 30 for safety)
	if attempt > 30 {
		attempt = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if backoff > MaxBackoff || backoff <= 0 {
		backoff = MaxBackoff
	}
	// Add jitter: -25% to +25% using auto-seeded math/rand/v2
	half := int64(backoff) / 2
	if half <= 0 {
		return backoff
	}
	jitter := time.Duration(rand.Int64N(half)) - backoff/4
	return backoff + jitter
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Retry calls fn up to maxRetries+1 times, sleeping with CalculateBackoff
// between attempts. It stops early on a permanent error or when ctx is done.
func Retry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(ctx context.Context) error) error {
	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(CalculateBackoff(baseDelay, attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("retry cancelled after %d attempts: %w", attempts, errors.Join(ctx.Err(), lastErr))
			case <-timer.C:
			}
		}

		attempts++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
		if IsPermanent(err) {
			break
		}
		if ctx.Err() != nil {
			return fmt.Errorf("retry cancelled after %d attempts: %w", attempts, errors.Join(ctx.Err(), err))
		}
	}
	if attempts == 1 {
		return errors.Unwrap(lastErr)
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
