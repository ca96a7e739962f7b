// Package resilience holds the circuit-breaker and backoff policies used when
// probing backend health. The primary transport deliberately stays outside
// this package: dashboard and search calls are never retried, only the
// connectivity monitor's probes are shaped here.
package resilience

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig holds configuration for a circuit breaker.
type BreakerConfig struct {
	// Name identifies the breaker in logs and state-change callbacks.
	Name string

	// MaxRequests is the number of probe requests allowed while half-open.
	// Default: 1
	MaxRequests uint32

	// OpenTimeout is how long the breaker stays open before probing again.
	// Default: 60 seconds
	OpenTimeout time.Duration

	// ReadyToTrip decides when to open the breaker. If nil, DefaultReadyToTrip.
	ReadyToTrip func(counts gobreaker.Counts) bool

	// OnStateChange is called on every breaker transition.
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultReadyToTrip opens the breaker after 5+ requests with a failure rate
// of at least 50%.
func DefaultReadyToTrip(counts gobreaker.Counts) bool {
	ratio := float64(counts.TotalFailures) / float64(counts.Requests)
	return counts.Requests >= 5 && ratio >= 0.5
}

// NewBreaker creates a circuit breaker with the given configuration.
func NewBreaker[T any](cfg BreakerConfig) *gobreaker.CircuitBreaker[T] {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 60 * time.Second
	}
	if cfg.ReadyToTrip == nil {
		cfg.ReadyToTrip = DefaultReadyToTrip
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: cfg.ReadyToTrip,
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = cfg.OnStateChange
	}

	return gobreaker.NewCircuitBreaker[T](settings)
}

// ProbeBackoff returns the retry schedule used between failed health probes:
// exponential growth from initial to max, never giving up. Reset it after a
// successful probe.
func ProbeBackoff(initial, max time.Duration) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initial
	bo.MaxInterval = max
	bo.MaxElapsedTime = 0
	return bo
}
