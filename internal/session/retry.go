package session

import (
	"context"
	"time"
)

// Backoff retries a call with exponentially growing delays
type Backoff struct {
	Attempts int
	Base     time.Duration
	// Sleep waits for d or until ctx is done. Nil means a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultBackoff is three attempts starting at 300ms
func DefaultBackoff() Backoff {
	return Backoff{Attempts: 3, Base: 300 * time.Millisecond}
}

// Do calls fn up to Attempts times, doubling the delay after each failure.
// It returns nil on the first success or the last error.
func (b Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := b.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := b.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	delay := b.Base
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt < attempts {
			if serr := sleep(ctx, delay); serr != nil {
				return serr
			}
			delay *= 2
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
