package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// BreakerSettings configures the circuit breaker of a Breaker.
type BreakerSettings struct {
	// MaxRequests is the number of requests allowed through when half-open.
	MaxRequests uint32
	// Interval is the cyclic period in the closed state after which the
	// failure counts are cleared. Zero never clears them.
	Interval time.Duration
	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker. Zero means 5.
	ConsecutiveFailures uint32
}

// Breaker is a Source that stops opening representations from a failing
// source for a while. Missing representations and canceled requests are
// not failures.
type Breaker struct {
	source  Source
	breaker *gobreaker.CircuitBreaker[Handle]
}

// NewBreaker wraps source with a circuit breaker. State changes are logged
// to logger.
func NewBreaker(name string, source Source, settings BreakerSettings, logger zerolog.Logger) *Breaker {
	failures := settings.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	return &Breaker{
		source: source,
		breaker: gobreaker.NewCircuitBreaker[Handle](gobreaker.Settings{
			Name:        name,
			MaxRequests: settings.MaxRequests,
			Interval:    settings.Interval,
			Timeout:     settings.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			IsSuccessful: func(err error) bool {
				return err == nil ||
					errors.Is(err, ErrNotFound) ||
					errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().Str("source", name).
					Str("from", from.String()).Str("to", to.String()).
					Msg("Circuit breaker state changed")
			},
		}),
	}
}

func (b *Breaker) Open(ctx context.Context, id string) (Handle, error) {
	handle, err := b.breaker.Execute(func() (Handle, error) {
		return b.source.Open(ctx, id)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return handle, err
}

// State returns the current state of the circuit breaker.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}
