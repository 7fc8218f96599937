package errors

import (
	"context"
	"time"
)

// RetryPolicy controls how often and how patiently Retry repeats an
// operation that failed with a transient error.
type RetryPolicy struct {
	// MaxAttempts is the number of retries after the first call (0 means no retry).
	MaxAttempts int `yaml:"max_attempts"`

	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`

	// Multiplier is the backoff multiplier (default: 2.0).
	Multiplier float64 `yaml:"multiplier"`

	// JitterPercent is the jitter fraction (0.1 for 10%).
	JitterPercent float64 `yaml:"jitter_percent"`
}

// DefaultRetryPolicy suits a sqlite writer waiting out another process's lock.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:   5,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		Multiplier:    2.0,
		JitterPercent: 0.1,
	}
}

// Retry calls fn until it succeeds, fails with an error that is not
// retryable, the policy's attempts run out, or ctx is done. The last error
// from fn is returned.
func Retry(ctx context.Context, policy *RetryPolicy, fn func() error) error {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}

	var lastErr error
	for attempt := 0; attempt <= policy.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !IsRetryable(lastErr) || attempt == policy.MaxAttempts {
			return lastErr
		}

		delay := AddJitter(CalculateDelay(attempt, policy), policy.JitterPercent)
		if err := waitBeforeRetry(ctx, delay); err != nil {
			return lastErr
		}
	}
	return lastErr
}

func waitBeforeRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
