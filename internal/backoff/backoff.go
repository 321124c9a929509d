// Package backoff retries a fallible operation with full jitter exponential backoff.
//
// The n-th retry sleeps for a duration drawn uniformly from [0, 2^n * BaseDelay).
// After MaxAttempts attempts the error from the last attempt is returned as is.
package backoff

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	gax "github.com/googleapis/gax-go/v2"
)

const (
	DefaultMaxAttempts = 12
	DefaultBaseDelay   = 50 * time.Millisecond
)

type state int

const (
	attempting state = iota
	backingOff
	succeeded
	exhausted
)

// Operation is any no-argument fallible call.
type Operation[T any] func(ctx context.Context) (T, error)

type options struct {
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	jitter      func(n int64) int64
	notify      func(attempt int, err error, delay time.Duration)
}

type Option func(*options)

// WithMaxAttempts sets the total number of attempts, including the first one.
// Values below 1 still attempt the operation once.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		o.maxAttempts = n
	}
}

func WithBaseDelay(d time.Duration) Option {
	return func(o *options) {
		o.baseDelay = d
	}
}

// WithSleep replaces the default context aware sleep.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) {
		o.sleep = sleep
	}
}

// WithJitter replaces the random source; fn must return a value in [0, n).
func WithJitter(fn func(n int64) int64) Option {
	return func(o *options) {
		o.jitter = fn
	}
}

// WithNotify registers a callback invoked before each backoff sleep.
func WithNotify(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(o *options) {
		o.notify = fn
	}
}

func defaults() *options {
	return &options{
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		sleep:       gax.Sleep,
		jitter:      rand.Int64N,
	}
}

// Execute runs op until it succeeds or the attempt budget is spent.
// Callers only ever see the final success or the last failure.
func Execute[T any](ctx context.Context, op Operation[T], opts ...Option) (T, error) {
	o := defaults()
	for _, fn := range opts {
		fn(o)
	}

	var (
		result  T
		lastErr error
		retry   int
	)
	st := attempting
	for {
		switch st {
		case attempting:
			result, lastErr = op(ctx)
			if lastErr == nil {
				st = succeeded
				continue
			}
			if retry+1 >= o.maxAttempts {
				st = exhausted
				continue
			}
			st = backingOff
		case backingOff:
			d := Delay(retry, o.baseDelay, o.jitter)
			if o.notify != nil {
				o.notify(retry+1, lastErr, d)
			}
			if err := o.sleep(ctx, d); err != nil {
				var zero T
				return zero, errors.Join(lastErr, err)
			}
			retry++
			st = attempting
		case succeeded:
			return result, nil
		case exhausted:
			var zero T
			return zero, lastErr
		}
	}
}

// Delay returns the full jitter delay for the given zero based retry.
func Delay(retry int, base time.Duration, jitter func(n int64) int64) time.Duration {
	ceiling := int64(base) << uint(retry)
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(jitter(ceiling))
}

// MaxCumulativeDelay is the upper bound on the total time spent sleeping
// when every attempt fails.
func MaxCumulativeDelay(maxAttempts int, base time.Duration) time.Duration {
	if maxAttempts <= 1 {
		return 0
	}
	return time.Duration((int64(1)<<uint(maxAttempts-1) - 1) * int64(base))
}
