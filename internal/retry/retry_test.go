package retry_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/campsite-booking/internal/domain"
	"github.com/pkordes/campsite-booking/internal/retry"
)

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts: attempts,
		Delay:       time.Millisecond,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestPolicy_SucceedsFirstTry(t *testing.T) {
	calls := 0

	err := fastPolicy(3).Do(context.Background(), "insert", func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicy_RecoversFromTransientFailure(t *testing.T) {
	calls := 0

	err := fastPolicy(3).Do(context.Background(), "insert", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPolicy_GivesUpAfterMaxAttempts(t *testing.T) {
	boom := errors.New("server selection timeout")
	calls := 0

	err := fastPolicy(3).Do(context.Background(), "insert", func(context.Context) error {
		calls++
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
	assert.ErrorContains(t, err, "after 3 attempt(s)")
	assert.ErrorContains(t, err, "insert")
}

func TestPolicy_DoesNotRetryValidation(t *testing.T) {
	calls := 0

	err := fastPolicy(3).Do(context.Background(), "insert", func(context.Context) error {
		calls++
		return fmt.Errorf("%w: booking_id is required", domain.ErrValidation)
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 1, calls)
}

func TestPolicy_DoesNotRetryNotFound(t *testing.T) {
	calls := 0

	err := fastPolicy(3).Do(context.Background(), "get", func(context.Context) error {
		calls++
		return domain.ErrNotFound
	})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestPolicy_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	p := fastPolicy(5)
	p.Delay = time.Hour // would hang the test if the cancellation were ignored

	err := p.Do(ctx, "insert", func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicy_ZeroAttemptsMeansOne(t *testing.T) {
	calls := 0

	err := fastPolicy(0).Do(context.Background(), "insert", func(context.Context) error {
		calls++
		return errors.New("down")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDefault(t *testing.T) {
	p := retry.Default()

	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 2*time.Second, p.Delay)
}
