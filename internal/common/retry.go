package common

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// WithBoundedRetry runs fn up to maxAttempts times with exponential backoff
// starting at initialDelay. fn signals a retryable failure by returning
// (true, err); a non-retryable error aborts immediately. All bounded retry
// loops (version inserts, OCR calls) go through this one helper.
func WithBoundedRetry(ctx context.Context, maxAttempts uint64, initialDelay time.Duration, fn func(ctx context.Context) (retryable bool, err error)) error {
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewExponential(initialDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		retryable, err := fn(ctx)
		if err != nil && retryable {
			return retry.RetryableError(err)
		}
		return err
	})
}
