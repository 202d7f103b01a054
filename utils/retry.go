package utils

import (
	"context"
	"math"
	"math/rand"
	"time"

	wastebot "github.com/greenloop/wastebot"
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (0 means no retries).
	MaxRetries int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration

	// Multiplier is the backoff growth factor.
	Multiplier float64

	// Jitter adds randomness to the delay (0-1, 0.1 means ±10%).
	Jitter float64

	// RetryIf decides whether an error is retryable.
	// If nil, uses wastebot.IsRetryable.
	RetryIf func(error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
		RetryIf:      wastebot.IsRetryable,
	}
}

// Retryer provides retry with exponential backoff.
type Retryer struct {
	config RetryConfig
}

// NewRetryer creates a retryer with the given configuration.
func NewRetryer(config RetryConfig) *Retryer {
	if config.RetryIf == nil {
		config.RetryIf = wastebot.IsRetryable
	}
	if config.InitialDelay == 0 {
		config.InitialDelay = 1 * time.Second
	}
	if config.MaxDelay == 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier == 0 {
		config.Multiplier = 2.0
	}
	return &Retryer{config: config}
}

// Do executes fn with retry logic.
func (r *Retryer) Do(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt >= r.config.MaxRetries || !r.config.RetryIf(err) {
			break
		}

		delay := r.calculateDelay(attempt)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt+1, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// DoWithResult executes fn with retry logic and returns its result.
func DoWithResult[T any](ctx context.Context, r *Retryer, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		val, err := fn()
		if err == nil {
			return val, nil
		}

		lastErr = err

		if attempt >= r.config.MaxRetries || !r.config.RetryIf(err) {
			break
		}

		delay := r.calculateDelay(attempt)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt+1, err, delay)
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(delay):
		}
	}

	return result, lastErr
}

func (r *Retryer) calculateDelay(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt))

	if r.config.Jitter > 0 {
		jitterRange := delay * r.config.Jitter
		delay += (rand.Float64()*2 - 1) * jitterRange
	}

	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}

	return time.Duration(delay)
}

// Retry is a convenience helper for simple retry operations.
func Retry(ctx context.Context, maxRetries int, fn func() error) error {
	r := NewRetryer(RetryConfig{MaxRetries: maxRetries})
	return r.Do(ctx, fn)
}

// RetryWithBackoff retries with explicit backoff parameters.
func RetryWithBackoff(ctx context.Context, maxRetries int, initialDelay, maxDelay time.Duration, fn func() error) error {
	r := NewRetryer(RetryConfig{
		MaxRetries:   maxRetries,
		InitialDelay: initialDelay,
		MaxDelay:     maxDelay,
		Multiplier:   2.0,
		Jitter:       0.1,
	})
	return r.Do(ctx, fn)
}
