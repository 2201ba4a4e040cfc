// Package retry provides the bounded, fixed-delay retry policy used around
// every document-store and head-office call.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/pkordes/campsite-booking/internal/domain"
)

// Default values: three attempts, two seconds apart.
const (
	DefaultMaxAttempts = 3
	DefaultDelay       = 2 * time.Second
)

// Policy retries an operation up to MaxAttempts times with a constant Delay
// between attempts. Validation errors, not-found errors and context
// cancellation are returned immediately.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Logger      *slog.Logger
}

// Default returns the reference policy.
func Default() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultDelay}
}

// Do runs fn until it succeeds, returns a permanent error, or the attempts
// run out. The returned error is the last one fn produced, wrapped with op
// and the attempt count.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	delay := p.Delay
	if delay <= 0 {
		// go-retry's constant backoff requires a positive duration.
		delay = time.Nanosecond
	}
	backoff := goretry.WithMaxRetries(uint64(attempts-1), goretry.NewConstant(delay))

	attempt := 0
	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil || permanent(err) {
			return err
		}
		if attempt < attempts {
			p.logger().WarnContext(ctx, "transient failure, retrying",
				"operation", op,
				"attempt", attempt,
				"max_attempts", attempts,
				"error", err,
			)
		}
		return goretry.RetryableError(err)
	})
	if err != nil {
		return fmt.Errorf("%s: after %d attempt(s): %w", op, attempt, err)
	}
	return nil
}

func (p Policy) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func permanent(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
