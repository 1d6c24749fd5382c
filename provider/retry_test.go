package provider

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func testRetrier(attempts int) *retrier {
	return &retrier{
		limiter:   rate.NewLimiter(rate.Inf, 1),
		timeout:   time.Second,
		attempts:  attempts,
		baseDelay: time.Millisecond,
		logger:    slog.Default(),
	}
}

func TestRetrier_Success(t *testing.T) {
	attempts := 0
	err := testRetrier(3).do(context.Background(), "feed", func(context.Context) error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
}

func TestRetrier_EventualSuccess(t *testing.T) {
	attempts := 0
	err := testRetrier(5).do(context.Background(), "feed", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetrier_AllAttemptsFail(t *testing.T) {
	attempts := 0
	expected := errors.New("persistent error")
	err := testRetrier(3).do(context.Background(), "feed", func(context.Context) error {
		attempts++
		return expected
	})

	assert.Equal(t, expected, err, "should return the last error")
	assert.Equal(t, 3, attempts)
}

func TestRetrier_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := testRetrier(10).do(ctx, "feed", func(context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestRetrier_InvalidMaxAttempts(t *testing.T) {
	called := false
	err := testRetrier(0).do(context.Background(), "feed", func(context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	assert.False(t, called)
}

func TestRetrier_DeadlinePerAttempt(t *testing.T) {
	r := testRetrier(2)
	r.timeout = 20 * time.Millisecond

	var deadlines []time.Time
	err := r.do(context.Background(), "feed", func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok, "every attempt runs under a deadline")
		deadlines = append(deadlines, deadline)
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, deadlines, 2)
	assert.True(t, deadlines[1].After(deadlines[0]), "a retry gets a fresh deadline")
}

func TestRetrier_NoTimeout(t *testing.T) {
	r := testRetrier(1)
	r.timeout = 0

	err := r.do(context.Background(), "feed", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestRetrier_LimiterPacesAttempts(t *testing.T) {
	r := testRetrier(3)
	r.limiter = rate.NewLimiter(rate.Limit(20), 1)
	r.baseDelay = 0

	start := time.Now()
	attempts := 0
	err := r.do(context.Background(), "feed", func(context.Context) error {
		attempts++
		return errors.New("unavailable")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond, "two waits of 50ms for tokens")
}

func TestRetrier_LimiterWaitHonorsContext(t *testing.T) {
	r := testRetrier(3)
	r.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, r.limiter.Allow(), "drain the only token")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := r.do(ctx, "feed", func(context.Context) error {
		called = true
		return nil
	})

	assert.Error(t, err)
	assert.False(t, called, "no request without a token")
}
