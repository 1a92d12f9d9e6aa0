package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// rateLimitFactor stretches the wait after a provider rate-limit error.
const rateLimitFactor = 4

// sleepFunc waits for d or until ctx is done.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
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

// retryWithBackoff calls fn up to retries+1 times, doubling the wait after
// each failure. A rate-limit error waits rateLimitFactor times longer.
// Context cancellation stops retrying immediately.
func retryWithBackoff(
	ctx context.Context,
	retries int,
	backoff time.Duration,
	sleep sleepFunc,
	onRetry func(attempt int, err error, wait time.Duration),
	fn func(ctx context.Context) error,
) error {
	var err error
	wait := backoff
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			pause := wait
			if errors.Is(err, domain.ErrRateLimited) {
				pause *= rateLimitFactor
			}
			if onRetry != nil {
				onRetry(attempt, err, pause)
			}
			if serr := sleep(ctx, pause); serr != nil {
				return serr
			}
			wait *= 2
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}
