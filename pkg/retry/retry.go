package retry

import (
	"context"
	"errors"
	"math"
	"time"
)

// Func is an operation that may be attempted more than once
type Func func(ctx context.Context) error

// Classifier reports whether an error is worth another attempt
type Classifier func(error) bool

// Options configures exponential backoff
type Options struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	Classifier      Classifier

	// OnRetry is called before waiting for the next attempt
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultOptions suits connecting to a database that may still be starting
func DefaultOptions() Options {
	return Options{
		MaxAttempts:     5,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
		Classifier:      Transient,
	}
}

// Transient retries everything except context cancellation
func Transient(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Do runs fn until it succeeds, a non-retryable error occurs, attempts run
// out or ctx is done. The last error from fn is returned.
func Do(ctx context.Context, opts Options, fn Func) error {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if opts.Classifier != nil && !opts.Classifier(err) {
			return err
		}
		if attempt == opts.MaxAttempts {
			break
		}

		wait := CalculateBackoff(attempt, opts)
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// CalculateBackoff returns the wait after the given attempt number
func CalculateBackoff(attempt int, opts Options) time.Duration {
	if attempt <= 1 {
		return opts.InitialInterval
	}

	interval := float64(opts.InitialInterval) * math.Pow(opts.Multiplier, float64(attempt-1))
	if interval > float64(opts.MaxInterval) {
		return opts.MaxInterval
	}
	return time.Duration(interval)
}
