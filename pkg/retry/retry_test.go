package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "friendtrack/pkg/errors"
	"friendtrack/pkg/logger"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewNopLogger(),
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return &errs.Error{Type: errs.ErrorTypeRateLimit, Code: 429}
		}
		return nil
	}, fastConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return &errs.Error{Type: errs.ErrorTypeNetwork}
	}, fastConfig(3))

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "max retry attempts")

	var apiErr *errs.Error
	assert.ErrorAs(t, err, &apiErr)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	authErr := &errs.Error{Type: errs.ErrorTypeAuth, Code: 401}
	err := Do(func() error {
		calls++
		return authErr
	}, fastConfig(5))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, authErr, err)
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := fastConfig(0)
	cfg.Backoff = &ConstantBackoff{Delay: time.Hour}
	cfg.Context = ctx

	done := make(chan error, 1)
	go func() {
		done <- Do(func() error {
			return &errs.Error{Type: errs.ErrorTypeNetwork}
		}, cfg)
	}()

	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retry cancelled")
	case <-time.After(time.Second):
		t.Fatal("retry did not stop on cancellation")
	}
}

func TestDoOnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
	}

	_ = Do(func() error {
		return &errs.Error{Type: errs.ErrorTypeServerError, Code: 500}
	}, cfg)

	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	result, err := DoWithResult(func() (string, error) {
		calls++
		if calls < 2 {
			return "", &errs.Error{Type: errs.ErrorTypeRateLimit, Code: 429}
		}
		return "ok", nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, calls)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.True(t, DefaultRetryIf(&errs.Error{Type: errs.ErrorTypeRateLimit}))
	assert.True(t, DefaultRetryIf(&errs.Error{Type: errs.ErrorTypeNetwork}))
	assert.True(t, DefaultRetryIf(&errs.Error{Type: errs.ErrorTypeServerError}))
	assert.False(t, DefaultRetryIf(&errs.Error{Type: errs.ErrorTypeAuth}))
	assert.False(t, DefaultRetryIf(&errs.Error{Type: errs.ErrorTypeNotFound}))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(context.DeadlineExceeded))
	assert.True(t, DefaultRetryIf(errors.New("something else")))
}

func TestRetrierBuilders(t *testing.T) {
	r := NewRetrier(fastConfig(1))
	r2 := r.WithMaxAttempts(5)

	// The original is untouched
	assert.Equal(t, 1, r.config.MaxAttempts)
	assert.Equal(t, 5, r2.config.MaxAttempts)

	calls := 0
	err := r2.Do(func() error {
		calls++
		if calls < 4 {
			return &errs.Error{Type: errs.ErrorTypeNetwork}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}
