// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pdiddy/paper2cmap/internal/logging"
)

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// maxBackoff caps a single wait between attempts.
const maxBackoff = time.Minute

// withRetry runs call up to maxRetries+1 times with exponential backoff
// (1x, 2x, 4x ... backoffBase). Context cancellation stops immediately and
// is never retried. After the last failed attempt the last error is
// returned wrapped.
func withRetry(ctx context.Context, log *logging.Logger, maxRetries int, call func(context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			log.Warn("LLM request failed, retrying", "attempt", attempt, "max_retries", maxRetries, "backoff", backoff, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		out, err := call(ctx)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
