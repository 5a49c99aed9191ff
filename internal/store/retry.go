package store

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures retry behavior for failed saves.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig returns the retry policy used for workout saves.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		InitialWait: 200 * time.Millisecond,
		MaxWait:     2 * time.Second,
		Multiplier:  2.0,
	}
}

// RetryRepo is a decorator that retries failed saves with exponential
// backoff and jitter. Every attempt sends the identical payload.
type RetryRepo struct {
	inner  WorkoutRepo
	config RetryConfig

	// OnRetry, if set, is called before each wait with the failed attempt
	// number (0-based) and its error.
	OnRetry func(attempt int, err error)
}

// WithRetry wraps a WorkoutRepo with retry logic for Save.
func WithRetry(repo WorkoutRepo, cfg RetryConfig) *RetryRepo {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryRepo{inner: repo, config: cfg}
}

func (r *RetryRepo) Get(ctx context.Context, userID, topicID string) (*WorkoutData, error) {
	return r.inner.Get(ctx, userID, topicID)
}

func (r *RetryRepo) History(ctx context.Context, userID, topicID string, opts QueryOpts) ([]WorkoutStatsData, error) {
	return r.inner.History(ctx, userID, topicID, opts)
}

func (r *RetryRepo) Save(ctx context.Context, w *WorkoutData, stats []WorkoutStatsData) error {
	var lastErr error

	for attempt := range r.config.MaxAttempts {
		err := r.inner.Save(ctx, w, stats)
		if err == nil {
			return nil
		}
		lastErr = err

		// Context errors are never retried.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// No sleep after the last attempt.
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		if r.OnRetry != nil {
			r.OnRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff(attempt)):
		}
	}

	return lastErr
}

// backoff computes the wait duration for the given attempt.
func (r *RetryRepo) backoff(attempt int) time.Duration {
	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
