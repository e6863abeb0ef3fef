package dom

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig bounds a Retry loop.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetry is the fallback for zero-valued configs.
var DefaultRetry = RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   250 * time.Millisecond,
	MaxDelay:    2 * time.Second,
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultRetry.MaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultRetry.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultRetry.MaxDelay
	}
	return c
}

// Retry runs fn up to cfg.MaxAttempts times with exponential backoff,
// stopping early on success or context cancellation. The last error is
// wrapped in the returned one.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	cfg = cfg.withDefaults()

	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("all %d attempts failed, last error: %w", cfg.MaxAttempts, lastErr)
}
