package circuitbreaker

import (
	"errors"
	"time"

	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Config tunes a breaker. Zero values fall back to the defaults below.
type Config struct {
	// ConsecutiveFailures trips the breaker open.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of trial requests allowed while half-open.
	HalfOpenRequests uint32
}

func (c Config) withDefaults() Config {
	if c.ConsecutiveFailures == 0 {
		c.ConsecutiveFailures = 5
	}
	if c.OpenTimeout == 0 {
		c.OpenTimeout = 10 * time.Second
	}
	if c.HalfOpenRequests == 0 {
		c.HalfOpenRequests = 1
	}
	return c
}

// Breaker guards calls to one upstream. Only UpstreamUnavailable failures
// count against it; business errors such as NotFound pass through as successes.
type Breaker[T any] struct {
	name string
	cb   *gobreaker.CircuitBreaker[T]
}

func New[T any](name string, cfg Config, log *zap.Logger) *Breaker[T] {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, apperr.ErrUpstreamUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &Breaker[T]{name: name, cb: gobreaker.NewCircuitBreaker[T](st)}
}

// Execute runs fn through the breaker. A rejected call is reported as
// UpstreamUnavailable wrapping gobreaker's own error.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	res, err := b.cb.Execute(fn)
	if IsOpen(err) {
		var zero T
		return zero, apperr.Upstream(err, "circuit %s rejected call", b.name)
	}
	return res, err
}

func (b *Breaker[T]) State() gobreaker.State {
	return b.cb.State()
}

// IsOpen reports whether err is a rejection by an open or saturated breaker.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
