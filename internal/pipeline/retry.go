package pipeline

import (
	"context"
	"time"
)

// RetryConfig controls exponential backoff for pipeline steps that talk to
// a remote (push, fetch) and may hit transient network failures.
type RetryConfig struct {
	MaxAttempts     int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	BackoffMultiply float64
}

// DefaultRetryConfig matches the merge lock's own poll/wait defaults in
// spirit: a handful of attempts, capped backoff.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialBackoff:  1 * time.Second,
	MaxBackoff:      10 * time.Second,
	BackoffMultiply: 2.0,
}

// RetryResult is the outcome of RetryWithBackoff.
type RetryResult struct {
	Success  bool
	Attempts int
	LastErr  error
}

// RetryWithBackoff retries operation on any error, on the assumption that
// push/fetch failures against a remote are usually transient.
func RetryWithBackoff(ctx context.Context, cfg RetryConfig, operation func(ctx context.Context) error) RetryResult {
	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := operation(ctx)
		if err == nil {
			return RetryResult{Success: true, Attempts: attempt}
		}
		lastErr = err

		if attempt < cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return RetryResult{Success: false, Attempts: attempt, LastErr: ctx.Err()}
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * cfg.BackoffMultiply)
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}
	}
	return RetryResult{Success: false, Attempts: cfg.MaxAttempts, LastErr: lastErr}
}
