// Package connectivity watches backend reachability by polling the health
// endpoint, the client-side stand-in for the browser's online/offline
// events. Probes go through a circuit breaker so a dead backend is not
// hammered, and failed probes back off exponentially.
package connectivity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/citypulse/citypulse/internal/citydata"
	"github.com/citypulse/citypulse/internal/resilience"
)

const (
	// DefaultInterval is the probe period while the backend is reachable.
	DefaultInterval = 30 * time.Second

	// DefaultProbeTimeout bounds a single probe.
	DefaultProbeTimeout = 5 * time.Second
)

// Prober answers backend health probes.
type Prober interface {
	Health(ctx context.Context) (citydata.HealthStatus, error)
}

// Config holds configuration for the monitor.
type Config struct {
	// Prober executes health checks (required).
	Prober Prober

	// Interval is the steady probe period while online (optional,
	// defaults to 30s).
	Interval time.Duration

	// ProbeTimeout bounds each probe (optional, defaults to 5s).
	ProbeTimeout time.Duration

	// InitialBackoff and MaxBackoff shape the retry schedule while
	// offline (optional, default 1s growing to the probe interval).
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// OnChange, if set, is called on every online/offline transition.
	OnChange func(online bool)

	// Logger for monitor events.
	Logger zerolog.Logger
}

// Monitor tracks whether the backend is reachable.
type Monitor struct {
	prober       Prober
	interval     time.Duration
	probeTimeout time.Duration
	bo           *backoff.ExponentialBackOff
	breaker      *gobreaker.CircuitBreaker[citydata.HealthStatus]
	onChange     func(online bool)
	logger       zerolog.Logger

	mu      sync.Mutex
	started bool
	online  bool
	version string
}

// New creates a monitor. It starts in the offline state until the first
// successful probe.
func New(cfg Config) *Monitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	initial := cfg.InitialBackoff
	if initial <= 0 {
		initial = time.Second
	}
	max := cfg.MaxBackoff
	if max <= 0 {
		max = interval
	}

	logger := cfg.Logger
	breaker := resilience.NewBreaker[citydata.HealthStatus](resilience.BreakerConfig{
		Name: "backend-health",
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("health breaker state change")
		},
	})

	return &Monitor{
		prober:       cfg.Prober,
		interval:     interval,
		probeTimeout: probeTimeout,
		bo:           resilience.ProbeBackoff(initial, max),
		breaker:      breaker,
		onChange:     cfg.OnChange,
		logger:       logger,
	}
}

// Run probes until ctx is canceled. Transitions fire the OnChange callback;
// the callback runs on the monitor goroutine.
func (m *Monitor) Run(ctx context.Context) {
	for {
		wait := m.probeOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// probeOnce performs a single probe and returns how long to sleep before the
// next one: the steady interval while online, the backoff schedule while
// offline.
func (m *Monitor) probeOnce(ctx context.Context) time.Duration {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	status, err := m.breaker.Execute(func() (citydata.HealthStatus, error) {
		return m.prober.Health(probeCtx)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			m.logger.Debug().Msg("health breaker open, probe skipped")
		}
		m.setOnline(false, "")
		return m.bo.NextBackOff()
	}

	m.setOnline(true, status.Version)
	m.bo.Reset()
	return m.interval
}

func (m *Monitor) setOnline(online bool, version string) {
	m.mu.Lock()
	changed := !m.started || m.online != online
	m.started = true
	m.online = online
	if version != "" {
		m.version = version
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	m.logger.Info().Bool("online", online).Msg("backend connectivity changed")
	if m.onChange != nil {
		m.onChange(online)
	}
}

// Online reports the current connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// BackendVersion returns the version string from the last successful probe.
func (m *Monitor) BackendVersion() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}
