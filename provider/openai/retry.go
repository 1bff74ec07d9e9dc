package openai

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/openai/openai-go"
)

// retryConfig controls how completion requests are retried on transient
// failures.
type retryConfig struct {
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		maxRetries: 3,
		retryDelay: 1 * time.Second,
		maxDelay:   30 * time.Second,
	}
}

// calculateBackoff returns an exponential backoff with jitter. The jitter
// spreads out retries so concurrent clients don't hammer the API in lockstep.
func calculateBackoff(baseDelay time.Duration, attempt int, maxDelay time.Duration) time.Duration {
	delay := baseDelay * time.Duration(1<<uint(attempt))
	if delay > maxDelay {
		delay = maxDelay
	}

	jitter := time.Duration(rand.Int63n(int64(delay / 4)))
	return delay + jitter
}

// isRetryableError reports whether the error is worth retrying: rate limits,
// server-side failures and transient network errors.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// withRetry runs fn until it succeeds, the error is not retryable, retries
// are exhausted, or the context is cancelled.
func withRetry(ctx context.Context, cfg retryConfig, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(calculateBackoff(cfg.retryDelay, attempt-1, cfg.maxDelay)):
			}
		}

		lastErr = fn()
		if lastErr == nil || !isRetryableError(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
