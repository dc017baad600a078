package utils

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig holds the parameters for the retry strategy. When RetryIf is
// set, an error it rejects is terminal and returned immediately; otherwise
// every error is retried up to MaxAttempts.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	RetryIf     func(error) bool
	Logger      *Logger
}

// Do executes fn with exponential back-off retry logic. The back-off sleep is
// abandoned when ctx is cancelled.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func() error) error {
	var lastErr error
	delay := r.BaseDelay

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if r.RetryIf != nil && !r.RetryIf(lastErr) {
			return fmt.Errorf("%s: %w", operationName, lastErr)
		}

		if attempt < r.MaxAttempts {
			r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v — retrying in %v",
				operationName, attempt, r.MaxAttempts, lastErr, delay)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s: %w", operationName, ctx.Err())
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, r.MaxAttempts, lastErr)
}
