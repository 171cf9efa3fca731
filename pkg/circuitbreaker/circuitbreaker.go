package circuitbreaker

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// ErrOpen is returned without calling fn while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

type Settings struct {
	Name        string
	MaxFailures uint32        // consecutive failures before opening
	MaxRequests uint32        // probes allowed while half-open
	Interval    time.Duration // closed-state counter reset period
	Timeout     time.Duration // open-state duration before half-open
}

type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	return &CircuitBreaker{
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        settings.Name,
			MaxRequests: settings.MaxRequests,
			Interval:    settings.Interval,
			Timeout:     settings.Timeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Circuit breaker state changed")
			},
		}),
	}
}

func (c *CircuitBreaker) Execute(fn func() error) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrOpen
	}
	return err
}

func (c *CircuitBreaker) State() string {
	return c.cb.State().String()
}
