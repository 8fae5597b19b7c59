package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var fastRetry = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    time.Millisecond,
	MaxDelay:        5 * time.Millisecond,
	BackoffMultiple: 2,
}

func TestCategorizeLookupError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		category  string
		retryable bool
	}{
		{"no documents", mongo.ErrNoDocuments, "not_found", false},
		{"wrapped not found", fmt.Errorf("%w: p1", ErrPaymentNotFound), "not_found", false},
		{"canceled", context.Canceled, "canceled", false},
		{"deadline", context.DeadlineExceeded, "timeout", true},
		{"network", mongo.CommandError{Message: "connection reset", Labels: []string{"NetworkError"}}, "network_error", true},
		{"other", errors.New("auth failed"), "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			le := categorizeLookupError(tt.err)
			require.NotNil(t, le)
			assert.Equal(t, tt.category, le.Category)
			assert.Equal(t, tt.retryable, le.Retryable)
			assert.Equal(t, tt.err, le.Err)
		})
	}

	assert.Nil(t, categorizeLookupError(nil))
}

func TestWithRetryRecoversFromTransientErrors(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastRetry, zap.NewNop(), func(context.Context) error {
		calls++
		if calls < 3 {
			return context.DeadlineExceeded
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStopsOnPermanentErrors(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastRetry, zap.NewNop(), func(context.Context) error {
		calls++
		return mongo.ErrNoDocuments
	})

	assert.Equal(t, mongo.ErrNoDocuments, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastRetry, zap.NewNop(), func(context.Context) error {
		calls++
		return context.DeadlineExceeded
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "after 3 attempts")

	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "timeout", le.Category)
}

func TestWithRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetry
	cfg.InitialDelay = time.Hour
	cfg.MaxDelay = time.Hour

	calls := 0
	err := withRetry(ctx, cfg, zap.NewNop(), func(context.Context) error {
		calls++
		cancel()
		return context.DeadlineExceeded
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, BackoffMultiple: 2}

	assert.Equal(t, 100*time.Millisecond, calculateBackoff(1, cfg))
	assert.Equal(t, 200*time.Millisecond, calculateBackoff(2, cfg))
	assert.Equal(t, 300*time.Millisecond, calculateBackoff(3, cfg))
}
