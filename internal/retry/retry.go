package retry

import (
	"context"
	"errors"
	"time"
)

type Policy struct {
	MaxAttempts int
	Delay       time.Duration

	// OnRetry is called after a failed attempt when another one will follow.
	OnRetry func(attempt int, err error)
}

// Do runs op until it succeeds or MaxAttempts is reached, sleeping Delay
// between attempts. The last error is returned, or the context error when ctx
// is done while waiting.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	if p.MaxAttempts < 1 {
		return zero, errors.New("retry: at least one attempt is required")
	}

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		var res T
		if res, err = op(ctx, attempt); err == nil {
			return res, nil
		}

		if attempt == p.MaxAttempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		if waitErr := sleep(ctx, p.Delay); waitErr != nil {
			return zero, waitErr
		}
	}

	return zero, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
