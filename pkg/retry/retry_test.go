package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func fastOptions() Options {
	opts := DefaultOptions()
	opts.InitialInterval = time.Microsecond
	opts.MaxInterval = 10 * time.Microsecond
	return opts
}

func TestRetryProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("backoff starts at the initial interval and never exceeds the cap", prop.ForAll(
		func(initialNs, maxNs int64, multiplier float64, attempt int) bool {
			opts := Options{
				InitialInterval: time.Duration(initialNs),
				MaxInterval:     time.Duration(maxNs),
				Multiplier:      multiplier,
			}
			backoff := CalculateBackoff(attempt, opts)
			if backoff > opts.MaxInterval {
				return false
			}
			if attempt == 1 && backoff != opts.InitialInterval {
				return false
			}
			return backoff >= opts.InitialInterval
		},
		gen.Int64Range(int64(10*time.Millisecond), int64(100*time.Millisecond)),
		gen.Int64Range(int64(1*time.Second), int64(5*time.Second)),
		gen.Float64Range(1.1, 3.0),
		gen.IntRange(1, 10),
	))

	properties.Property("attempts never exceed the maximum", prop.ForAll(
		func(maxAttempts int) bool {
			count := 0
			opts := fastOptions()
			opts.MaxAttempts = maxAttempts
			_ = Do(context.Background(), opts, func(context.Context) error {
				count++
				return errors.New("connection refused")
			})
			return count == maxAttempts
		},
		gen.IntRange(1, 10),
	))

	properties.Property("non-retryable errors stop immediately", prop.ForAll(
		func(failAt int) bool {
			count := 0
			opts := fastOptions()
			opts.MaxAttempts = 10
			opts.Classifier = func(err error) bool { return err.Error() == "retryable" }

			err := Do(context.Background(), opts, func(context.Context) error {
				count++
				if count == failAt {
					return errors.New("fatal")
				}
				return errors.New("retryable")
			})
			return count == failAt && err.Error() == "fatal"
		},
		gen.IntRange(1, 5),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRetrySuccess(t *testing.T) {
	count := 0
	var retried []int
	opts := fastOptions()
	opts.OnRetry = func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) }

	err := Do(context.Background(), opts, func(context.Context) error {
		count++
		if count < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetryZeroAttemptsRunsOnce(t *testing.T) {
	count := 0
	opts := fastOptions()
	opts.MaxAttempts = 0
	_ = Do(context.Background(), opts, func(context.Context) error {
		count++
		return errors.New("x")
	})
	assert.Equal(t, 1, count)
}

func TestTransientClassifier(t *testing.T) {
	assert.True(t, Transient(errors.New("dial tcp: connection refused")))
	assert.False(t, Transient(fmt.Errorf("ping: %w", context.Canceled)))
	assert.False(t, Transient(context.DeadlineExceeded))
}

func TestRetryContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := DefaultOptions()
	opts.InitialInterval = 100 * time.Millisecond

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, opts, func(context.Context) error { return errors.New("waiting") })
	assert.ErrorIs(t, err, context.Canceled)
}
