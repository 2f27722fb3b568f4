// Package resilience wraps flaky operations: bounded retry with jittered
// exponential backoff, a circuit breaker for a repeatedly failing
// dependency, and a timeout guard for bounded work. The job worker retries
// result persistence and bounds each comparison; the report cache runs its
// Redis calls behind a breaker.
package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// RetryConfig tunes Retry. Zero fields take the package defaults, so
// RetryConfig{} is a valid everyday configuration.
type RetryConfig struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
}

func (cfg *RetryConfig) fillDefaults() {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.JitterFraction <= 0 {
		cfg.JitterFraction = 0.1
	}
}

// Retry runs fn up to cfg.MaxAttempts times, sleeping with jittered
// exponential backoff between attempts. Context cancellation stops the loop
// between attempts and during backoff. The name only labels log lines and
// the final error.
func Retry(ctx context.Context, name string, cfg RetryConfig, fn func() error) error {
	cfg.fillDefaults()
	log := slog.Default().With("component", "retry", "operation", name)

	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				log.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt == cfg.MaxAttempts {
			return fmt.Errorf("all %d attempts failed for %s: %w", cfg.MaxAttempts, name, lastErr)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}

		sleep := jitter(delay, cfg.JitterFraction)
		log.Warn("operation failed, retrying",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"error", lastErr,
			"next_delay", sleep,
		)
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return fmt.Errorf("retry aborted during backoff: %w", ctx.Err())
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

// jitter spreads d by up to ±fraction so synchronized retriers fan out.
func jitter(d time.Duration, fraction float64) time.Duration {
	offset := (2*rand.Float64() - 1) * fraction * float64(d)
	out := time.Duration(float64(d) + offset)
	if out < 0 {
		return d
	}
	return out
}
