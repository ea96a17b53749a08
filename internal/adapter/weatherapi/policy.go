package weatherapi

import (
	"context"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
)

// Policy bounds how a single section request is retried.
type Policy struct {
	Attempts  int           // total attempts including the first
	BaseDelay time.Duration // wait before the second attempt
	MaxDelay  time.Duration // cap for the doubling backoff
	Retryable func(error) bool
}

// DefaultPolicy retries transport errors up to three attempts, waiting 4s then 8s.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 4 * time.Second,
		MaxDelay:  10 * time.Second,
		Retryable: IsTransportError,
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. onRetry, if set, runs before each backoff sleep.
// The last error is returned.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error, onRetry func(attempt int, wait time.Duration, err error)) error {
	attempts := max(p.Attempts, 1)
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransportError
	}

	backoff := p.BaseDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil || attempt >= attempts || !retryable(err) {
			return err
		}

		wait := min(backoff, p.MaxDelay)
		if onRetry != nil {
			onRetry(attempt, wait, err)
		}
		if !retry.SleepWithContext(ctx, wait) {
			return err
		}
		backoff = retry.NextBackoff(backoff, p.MaxDelay)
	}
}
