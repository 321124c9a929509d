package backoff_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/dnitsch/configure-aws-credentials/internal/backoff"
	"github.com/google/go-cmp/cmp"
)

type sleepRecorder struct {
	slept []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	return nil
}

// maxJitter always draws the largest value allowed
func maxJitter(n int64) int64 {
	return n - 1
}

func Test_Execute_with(t *testing.T) {
	ttests := map[string]struct {
		failures    int
		maxAttempts int
		expectCalls int
		expectErr   bool
	}{
		"succeeds first time": {
			failures: 0, maxAttempts: 12, expectCalls: 1,
		},
		"fails 3 times then succeeds": {
			failures: 3, maxAttempts: 12, expectCalls: 4,
		},
		"fails 11 times and succeeds on the last attempt": {
			failures: 11, maxAttempts: 12, expectCalls: 12,
		},
		"always fails with default budget": {
			failures: 100, maxAttempts: 12, expectCalls: 12, expectErr: true,
		},
		"always fails with budget of 3": {
			failures: 100, maxAttempts: 3, expectCalls: 3, expectErr: true,
		},
		"zero attempts still tries once": {
			failures: 100, maxAttempts: 0, expectCalls: 1, expectErr: true,
		},
		"one attempt tries once": {
			failures: 100, maxAttempts: 1, expectCalls: 1, expectErr: true,
		},
	}
	for name, tt := range ttests {
		t.Run(name, func(t *testing.T) {
			calls := 0
			var lastErr error
			rec := &sleepRecorder{}
			op := func(ctx context.Context) (string, error) {
				calls++
				if calls <= tt.failures {
					lastErr = fmt.Errorf("failure %d", calls)
					return "", lastErr
				}
				return "ok", nil
			}

			got, err := backoff.Execute(context.TODO(), op,
				backoff.WithMaxAttempts(tt.maxAttempts),
				backoff.WithSleep(rec.sleep),
				backoff.WithJitter(maxJitter))

			if calls != tt.expectCalls {
				t.Errorf("got %d calls, wanted %d", calls, tt.expectCalls)
			}

			if tt.expectErr {
				if err == nil {
					t.Fatalf("got <nil>, wanted %s", lastErr)
				}
				if err != lastErr {
					t.Errorf("got %s, wanted the last error %s", err, lastErr)
				}
				if len(rec.slept) != tt.expectCalls-1 {
					t.Errorf("got %d sleeps, wanted %d", len(rec.slept), tt.expectCalls-1)
				}
				return
			}

			if err != nil {
				t.Fatalf("got %s, wanted <nil>", err)
			}
			if got != "ok" {
				t.Errorf("got %q, wanted %q", got, "ok")
			}
		})
	}
}

func Test_Execute_sleeps_grow_exponentially(t *testing.T) {
	rec := &sleepRecorder{}
	_, err := backoff.Execute(context.TODO(), func(ctx context.Context) (int, error) {
		return 0, errors.New("throttled")
	}, backoff.WithSleep(rec.sleep), backoff.WithJitter(maxJitter))
	if err == nil {
		t.Fatal("got <nil>, wanted error")
	}

	want := []time.Duration{}
	for n := 0; n < backoff.DefaultMaxAttempts-1; n++ {
		want = append(want, time.Duration(int64(backoff.DefaultBaseDelay)<<uint(n))-1)
	}
	if diff := cmp.Diff(want, rec.slept); diff != "" {
		t.Errorf("sleep durations mismatch (-want +got):\n%s", diff)
	}
}

func Test_Delay_within_full_jitter_range(t *testing.T) {
	var total time.Duration
	for n := 0; n < backoff.DefaultMaxAttempts-1; n++ {
		ceiling := time.Duration(int64(backoff.DefaultBaseDelay) << uint(n))
		for i := 0; i < 50; i++ {
			d := backoff.Delay(n, backoff.DefaultBaseDelay, rand.Int64N)
			if d < 0 || d >= ceiling {
				t.Fatalf("retry %d: got %v, wanted [0, %v)", n, d, ceiling)
			}
		}
		total += backoff.Delay(n, backoff.DefaultBaseDelay, rand.Int64N)
	}
	bound := backoff.MaxCumulativeDelay(backoff.DefaultMaxAttempts, backoff.DefaultBaseDelay)
	if total >= bound {
		t.Errorf("cumulative sleep %v exceeds bound %v", total, bound)
	}
	if bound != 2047*backoff.DefaultBaseDelay {
		t.Errorf("got bound %v, wanted %v", bound, 2047*backoff.DefaultBaseDelay)
	}
}

func Test_Delay_zero_jitter(t *testing.T) {
	if got := backoff.Delay(5, backoff.DefaultBaseDelay, func(n int64) int64 { return 0 }); got != 0 {
		t.Errorf("got %v, wanted 0", got)
	}
}

func Test_Execute_stops_when_sleep_fails(t *testing.T) {
	opErr := errors.New("op failed")
	calls := 0
	_, err := backoff.Execute(context.TODO(), func(ctx context.Context) (int, error) {
		calls++
		return 0, opErr
	}, backoff.WithSleep(func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}))

	if calls != 1 {
		t.Errorf("got %d calls, wanted 1", calls)
	}
	if !errors.Is(err, opErr) || !errors.Is(err, context.Canceled) {
		t.Errorf("got %s, wanted both the op error and context.Canceled", err)
	}
}

func Test_Execute_notifies_each_retry(t *testing.T) {
	attempts := []int{}
	_, _ = backoff.Execute(context.TODO(), func(ctx context.Context) (int, error) {
		return 0, errors.New("nope")
	},
		backoff.WithMaxAttempts(4),
		backoff.WithSleep((&sleepRecorder{}).sleep),
		backoff.WithNotify(func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
		}))

	if diff := cmp.Diff([]int{1, 2, 3}, attempts); diff != "" {
		t.Errorf("notify attempts mismatch (-want +got):\n%s", diff)
	}
}
