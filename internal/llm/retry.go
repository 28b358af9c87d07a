package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const defaultBackoff = 500 * time.Millisecond

type retryPolicy struct {
	maxRetries int
	base       time.Duration
	logger     *zap.Logger
}

// do runs send until it succeeds, fails with a permanent error or the
// retry budget is spent. Only temporary status errors are retried.
func (r retryPolicy) do(ctx context.Context, send func(ctx context.Context) (string, error)) (string, error) {
	base := r.base
	if base <= 0 {
		base = defaultBackoff
	}
	maxRetries := uint64(0)
	if r.maxRetries > 0 {
		maxRetries = uint64(r.maxRetries)
	}
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(base))

	var out string
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		res, err := send(ctx)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && statusErr.Temporary() {
				if r.logger != nil {
					r.logger.Warn("model request failed, retrying",
						zap.Int("attempt", attempt),
						zap.Int("status", statusErr.StatusCode))
				}
				return retry.RetryableError(err)
			}
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
