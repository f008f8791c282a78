// Package resilience provides retry with exponential backoff for
// transient failures of external calls.
package resilience

import (
	"context"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
	// Multiplier scales the delay after each failed attempt.
	Multiplier float64
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// Retrier runs functions with bounded retries. Only errors the
// retryable predicate accepts trigger another attempt; everything else
// is returned immediately.
type Retrier struct {
	config    RetryConfig
	retryable func(error) bool
}

// NewRetrier creates a retrier. A nil predicate retries every error.
func NewRetrier(config RetryConfig, retryable func(error) bool) *Retrier {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.Multiplier <= 1 {
		config.Multiplier = 2.0
	}
	if retryable == nil {
		retryable = func(error) bool { return true }
	}
	return &Retrier{config: config, retryable: retryable}
}

// Do runs fn until it succeeds, exhausts the attempt budget, the error
// is not retryable, or the context is canceled. The last error is
// returned.
func (r *Retrier) Do(ctx context.Context, fn func() error) error {
	delay := r.config.InitialDelay

	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if attempt >= r.config.MaxAttempts || !r.retryable(err) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * r.config.Multiplier)
		if r.config.MaxDelay > 0 && delay > r.config.MaxDelay {
			delay = r.config.MaxDelay
		}
	}
}
