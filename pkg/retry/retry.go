// Package retry runs an operation with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Config holds retry configuration
type Config struct {
	MaxRetries     int           // Maximum number of retry attempts
	InitialBackoff time.Duration // Initial backoff duration
	MaxBackoff     time.Duration // Maximum backoff duration
	Multiplier     float64       // Backoff multiplier (exponential)
}

// DefaultConfig returns the defaults used by the CLI client
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2.0,
	}
}

func (c Config) backOff() *backoff.ExponentialBackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     c.InitialBackoff,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          c.Multiplier,
		MaxInterval:         c.MaxBackoff,
	}
}

// Permanent marks err as not worth retrying. Do returns the wrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Do executes fn with exponential backoff until it succeeds, returns a
// Permanent error, ctx is done or MaxRetries retries were made
func Do(ctx context.Context, config Config, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("retry cancelled: %w", err)
	}

	var permanent error
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn()
		var p *backoff.PermanentError
		if errors.As(err, &p) {
			permanent = p.Err
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(config.backOff()),
		backoff.WithMaxTries(uint(config.MaxRetries+1)),
		backoff.WithMaxElapsedTime(0),
	)

	switch {
	case err == nil:
		return nil
	case permanent != nil:
		return permanent
	case ctx.Err() != nil:
		return fmt.Errorf("retry cancelled: %w", err)
	default:
		return fmt.Errorf("max retries (%d) exceeded: %w", config.MaxRetries, err)
	}
}
