// Package retry adapts the teacher's workflow-node retry policy to the
// model back-end's runtime faults (§7): a transition-oracle call
// (InitialState/EnumerateSuccessors) that signals a transient fault is
// retried under the configured policy before the core gives up and
// surfaces a driver.Error.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// BackoffStrategy defines how retry delays are calculated.
type BackoffStrategy string

const (
	// BackoffConstant uses a constant delay between retries.
	BackoffConstant BackoffStrategy = "constant"

	// BackoffLinear increases delay linearly with each attempt.
	BackoffLinear BackoffStrategy = "linear"

	// BackoffExponential doubles delay with each attempt.
	BackoffExponential BackoffStrategy = "exponential"
)

// Policy defines the retry behavior around a single back-end call.
type Policy struct {
	// MaxAttempts is the maximum number of attempts (including the first
	// one). 0 or 1 means no retries.
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration

	// BackoffStrategy determines how delays increase.
	BackoffStrategy BackoffStrategy

	// RetryableErrors is a list of substrings matched against the error
	// message. If empty, every error is retryable.
	RetryableErrors []string

	// OnRetry is an optional callback invoked before each retry.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy returns a policy suited to a flaky back-end: a handful of
// exponentially-spaced attempts.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts:     3,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        2 * time.Second,
		BackoffStrategy: BackoffExponential,
	}
}

// NoRetry returns a policy that never retries — the default for back-ends
// known to fail deterministically (a retry would only waste a DFS step).
func NoRetry() *Policy {
	return &Policy{MaxAttempts: 1}
}

// ShouldRetry reports whether err matches the policy's retryable set.
func (p *Policy) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if len(p.RetryableErrors) == 0 {
		return true
	}
	msg := err.Error()
	for _, pattern := range p.RetryableErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// Delay calculates the wait before the next attempt.
func (p *Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	var delay time.Duration
	switch p.BackoffStrategy {
	case BackoffConstant:
		delay = p.InitialDelay
	case BackoffLinear:
		delay = p.InitialDelay * time.Duration(attempt)
	case BackoffExponential:
		multiplier := math.Pow(2, float64(attempt-1))
		delay = time.Duration(float64(p.InitialDelay) * multiplier)
	default:
		delay = p.InitialDelay
	}

	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Do runs fn, retrying under the policy until it succeeds, the context is
// cancelled, or attempts are exhausted.
func (p *Policy) Do(ctx context.Context, fn func() error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry: cancelled: %w", ctx.Err())
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= maxAttempts || !p.ShouldRetry(err) {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		if delay := p.Delay(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry: cancelled during backoff: %w", ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("retry: all %d attempt(s) failed: %w", maxAttempts, lastErr)
}

// IsRetryableError reports whether err looks like a transient back-end
// fault rather than a permanent one (context cancellation/deadline is
// never retryable; anything reporting Temporary()/Timeout() is).
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	var temporaryErr interface{ Temporary() bool }
	if errors.As(err, &temporaryErr) {
		return temporaryErr.Temporary()
	}

	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Timeout()
	}

	return true
}
