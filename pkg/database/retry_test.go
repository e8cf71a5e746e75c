package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBusyError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"database is locked", errors.New("database is locked"), true},
		{"database table is locked", errors.New("database table is locked"), true},
		{"SQLITE_BUSY", errors.New("SQLITE_BUSY"), true},
		{"error code 5", errors.New("error (5): database busy"), true},
		{"unrelated error", errors.New("connection refused"), false},
		{"constraint violation", errors.New("UNIQUE constraint failed"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isBusyError(tt.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()
	assert.False(t, IsUniqueViolation(nil))
	assert.True(t, IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: songs.fingerprint (2067)")))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: user_songs.user_id, user_songs.song_id")))
	assert.False(t, IsUniqueViolation(errors.New("FOREIGN KEY constraint failed")))
	assert.False(t, IsUniqueViolation(errors.New("database is locked")))
}

func TestRetryBusy(t *testing.T) {
	t.Parallel()

	t.Run("succeeds on first attempt", func(t *testing.T) {
		attempts := 0
		err := retryBusy(context.Background(), 5, func() error {
			attempts++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("retries on busy error and succeeds", func(t *testing.T) {
		attempts := 0
		err := retryBusy(context.Background(), 5, func() error {
			attempts++
			if attempts < 3 {
				return errors.New("database is locked")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("does not retry unique violations", func(t *testing.T) {
		attempts := 0
		err := retryBusy(context.Background(), 5, func() error {
			attempts++
			return errors.New("UNIQUE constraint failed: songs.fingerprint")
		})
		require.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("exhausts all retries on persistent busy error", func(t *testing.T) {
		attempts := 0
		err := retryBusy(context.Background(), 3, func() error {
			attempts++
			return errors.New("database is locked")
		})
		require.Error(t, err)
		assert.Equal(t, 4, attempts)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		attempts := 0
		err := retryBusy(ctx, 10, func() error {
			attempts++
			return errors.New("database is locked")
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Less(t, attempts, 10)
	})
}
