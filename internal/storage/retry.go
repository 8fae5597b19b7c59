// retry.go - Retry logic and error categorization for payment lookups

package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// RetryConfig defines retry behavior for MongoDB reads
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig keeps the worst case well inside a request timeout
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    200 * time.Millisecond,
	MaxDelay:        2 * time.Second,
	BackoffMultiple: 2.0,
}

// LookupError represents a categorized lookup failure
type LookupError struct {
	Err       error
	Category  string
	Retryable bool
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("[%s] %v (retryable: %v)", e.Category, e.Err, e.Retryable)
}

func (e *LookupError) Unwrap() error { return e.Err }

// categorizeLookupError decides whether a failed read is worth repeating
func categorizeLookupError(err error) *LookupError {
	if err == nil {
		return nil
	}
	le := &LookupError{Err: err, Category: "unknown"}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments), errors.Is(err, ErrPaymentNotFound):
		le.Category = "not_found"
	case errors.Is(err, context.Canceled):
		le.Category = "canceled"
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err):
		le.Category = "timeout"
		le.Retryable = true
	case mongo.IsNetworkError(err):
		le.Category = "network_error"
		le.Retryable = true
	}
	return le
}

// withRetry runs op until it succeeds, fails permanently, or attempts run out.
// Non-retryable errors are returned unchanged.
func withRetry(ctx context.Context, cfg RetryConfig, log *zap.Logger, op func(context.Context) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var last *LookupError
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				log.Info("✅ Retry succeeded", zap.Int("attempt", attempt))
			}
			return nil
		}

		last = categorizeLookupError(err)
		if !last.Retryable {
			return err
		}
		log.Warn("payment lookup failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", cfg.MaxAttempts),
			zap.String("category", last.Category),
			zap.Error(err),
		)
		if attempt >= cfg.MaxAttempts {
			break
		}

		delay := calculateBackoff(attempt, cfg)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("context canceled during retry wait: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("payment lookup failed after %d attempts: %w", cfg.MaxAttempts, last)
}

// calculateBackoff computes exponential backoff delay
func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffMultiple, float64(attempt-1))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}
