package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy defines the interface for different backoff strategies
type BackoffStrategy interface {
	// NextDelay returns the delay to apply before the given attempt
	NextDelay(attempt int) time.Duration
	// Reset resets the backoff strategy to initial state
	Reset()
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	// BaseDelay is the initial delay duration
	BaseDelay time.Duration
	// MaxDelay is the maximum delay duration
	MaxDelay time.Duration
	// Multiplier is the factor by which delay increases
	Multiplier float64
	// JitterFactor adds randomness to avoid thundering herd (0.0 to 1.0)
	JitterFactor float64
}

// DefaultExponentialBackoff returns a backoff with sensible defaults
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NextDelay calculates the next delay with exponential backoff and jitter
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))

	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		// Random value between -jitter and +jitter
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// Reset resets the backoff to initial state
func (eb *ExponentialBackoff) Reset() {}

// LinearBackoff implements linear backoff: BaseDelay, then BaseDelay+Increment,
// and so on, capped at MaxDelay. This is the policy used for rate-limited
// calls: the wait grows by a fixed step per attempt.
type LinearBackoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Increment time.Duration
}

// RateLimitBackoff returns the backoff applied after a 429 response: the base
// delay grows by one step per attempt (5s, 10s, 15s with a 5s base).
func RateLimitBackoff(baseDelay time.Duration) *LinearBackoff {
	return &LinearBackoff{
		BaseDelay: baseDelay,
		MaxDelay:  time.Minute,
		Increment: baseDelay,
	}
}

// NextDelay calculates the next delay with linear backoff
func (lb *LinearBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := lb.BaseDelay + lb.Increment*time.Duration(attempt-1)

	if lb.MaxDelay > 0 && delay > lb.MaxDelay {
		delay = lb.MaxDelay
	}

	return delay
}

// Reset resets the backoff to initial state
func (lb *LinearBackoff) Reset() {}

// ConstantBackoff implements constant delay backoff
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// Reset resets the backoff (no-op for constant backoff)
func (cb *ConstantBackoff) Reset() {}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
