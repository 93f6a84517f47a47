package explain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// transientError is a response that may succeed if asked again: rate
// limiting or a server failure.
type transientError struct {
	status int
	after  time.Duration // from Retry-After, zero if absent
}

func (e *transientError) Error() string {
	return fmt.Sprintf("server error: status %d", e.status)
}

func (e *transientError) delay() time.Duration {
	if e.after > 0 {
		return e.after
	}
	return time.Second
}

// retry runs attempt at most n times, stopping at the first success or at
// an error that is not a *transientError.
func retry(ctx context.Context, n int, logger *slog.Logger, attempt func() (string, error)) (string, error) {
	var err error
	for i := range n {
		if i > 0 {
			logger.Debug("retrying LLM request", "attempt", i+1)
		}

		var out string
		out, err = attempt()
		var te *transientError
		if !errors.As(err, &te) {
			return out, err
		}
		if i == n-1 {
			break
		}
		if werr := wait(ctx, te.delay()); werr != nil {
			return "", werr
		}
	}
	return "", fmt.Errorf("LLM request failed after retries: %w", err)
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// parseRetryAfter understands the delay-seconds form only.
func parseRetryAfter(val string) time.Duration {
	if seconds, err := strconv.Atoi(strings.TrimSpace(val)); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}
