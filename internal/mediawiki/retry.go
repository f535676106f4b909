package mediawiki

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/avast/retry-go/v4"
)

// MaxRetries is the number of attempts made for one API call.
const MaxRetries = 3

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// withRetry runs fn until it succeeds, returns a non-retryable error or the
// attempts are used up.
func withRetry(ctx context.Context, attempts uint, backoff func(int) time.Duration, onRetry func(uint, error), fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.RetryIf(IsRetryable),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return backoff(int(n))
		}),
		retry.OnRetry(onRetry),
		retry.LastErrorOnly(true),
	)
}
