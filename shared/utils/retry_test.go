package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_EventualSuccess(t *testing.T) {
	// Arrange
	calls := 0

	// Act
	err := Retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_Exhausted(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return boom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 5, 50*time.Millisecond, func() error {
		return errors.New("transient")
	})

	require.Error(t, err)
}

func TestRetryIf_OnlyRetriesMatchingError(t *testing.T) {
	retryable := errors.New("version conflict")
	other := errors.New("disk on fire")

	t.Run("reintenta el error esperado", func(t *testing.T) {
		calls := 0
		err := RetryIf(context.Background(), 3, time.Millisecond, retryable, func() error {
			calls++
			if calls < 2 {
				return retryable
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("devuelve inmediatamente cualquier otro error", func(t *testing.T) {
		calls := 0
		err := RetryIf(context.Background(), 3, time.Millisecond, retryable, func() error {
			calls++
			return other
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, other)
		assert.Equal(t, 1, calls)
	})
}
