package chain

import (
	"context"
	"errors"
	"time"
)

const defaultRetryDelay = 100 * time.Millisecond

// RetryPolicy retries read-only RPC lookups with capped exponential backoff.
// Writes never go through it.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	// MaxDelay caps the backoff; zero leaves it uncapped.
	MaxDelay time.Duration
	// OnRetry is called before each wait with the failed attempt number.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Do runs fn until it succeeds, the retries are spent or ctx is done.
// Errors caused by ctx itself end the loop at once.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt > maxRetries {
			return err
		}
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
