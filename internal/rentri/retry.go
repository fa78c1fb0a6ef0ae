package rentri

import (
	"context"
	"time"
)

// Policy is an explicit retry policy passed to the transport layer. Keeping
// the backoff and sleep functions injectable lets tests drive the retry loop
// without real delays.
type Policy struct {
	// MaxAttempts bounds the total number of attempts, first included.
	MaxAttempts int
	// Backoff returns the delay before the next attempt; attempt starts at 1.
	Backoff func(attempt int) time.Duration
	// Retryable decides whether an error from one attempt is worth another.
	Retryable func(err error) bool
	// Sleep waits out a backoff delay; defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// SingleAttempt performs no retries. Pull-side GETs use it: paging makes
// re-running the whole sync cheaper than retrying one page.
func SingleAttempt() Policy {
	return Policy{MaxAttempts: 1}
}

// PushPolicy is the submission retry contract: three attempts total, linear
// attempt×1s backoff, client errors final, server and transport errors
// retried.
func PushPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * time.Second
		},
		Retryable: IsRetryable,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Backoff == nil {
		p.Backoff = func(int) time.Duration { return 0 }
	}
	if p.Retryable == nil {
		p.Retryable = IsRetryable
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	return p
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
