// Package connectivity tracks whether the remote inventory service is
// reachable. The state is probed on a ticker and listeners are told about
// every transition.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/posmart/internal/logging"
)

type State string

const (
	Offline State = "offline"
	Online  State = "online"
)

// Prober checks reachability; a nil error means online.
type Prober interface {
	Ping(ctx context.Context) error
}

// Listener is called synchronously, in registration order, after the state
// has changed.
type Listener func(ctx context.Context, from, to State)

const DefaultProbeTimeout = 3 * time.Second

type Monitor struct {
	prober       Prober
	interval     time.Duration
	probeTimeout time.Duration
	logger       logging.Logger

	mu        sync.RWMutex
	state     State
	listeners []Listener
}

func NewMonitor(p Prober, interval time.Duration, logger logging.Logger) *Monitor {
	return &Monitor{
		prober:       p,
		interval:     interval,
		probeTimeout: DefaultProbeTimeout,
		logger:       logger.With("module", "connectivity"),
		state:        Offline,
	}
}

// OnTransition registers l for future transitions.
func (m *Monitor) OnTransition(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Monitor) IsOnline() bool {
	return m.State() == Online
}

// Init sets the starting state from one probe without notifying listeners.
func (m *Monitor) Init(ctx context.Context) State {
	s := m.probe(ctx)
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	m.logger.Info(ctx, "initial connectivity", "state", s)
	return s
}

// Check probes once and applies the result.
func (m *Monitor) Check(ctx context.Context) State {
	s := m.probe(ctx)
	m.Set(ctx, s)
	return s
}

// Set moves to s. Listeners run only when the state actually changes.
func (m *Monitor) Set(ctx context.Context, s State) {
	m.mu.Lock()
	from := m.state
	if from == s {
		m.mu.Unlock()
		return
	}
	m.state = s
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	m.logger.Info(ctx, "switched mode", "from", from, "to", s)
	for _, l := range listeners {
		l(ctx, from, s)
	}
}

// Run probes every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) probe(ctx context.Context) State {
	ctx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	if err := m.prober.Ping(ctx); err != nil {
		m.logger.Debug(ctx, "ping failed", "error", err)
		return Offline
	}
	return Online
}
