// Package reconnect tracks connectivity to the contact endpoint and
// flushes the pending contact message when the connection comes back.
package reconnect

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Prober checks whether the upstream can be reached.
type Prober interface {
	Probe(ctx context.Context) error
}

// HTTPProber sends a HEAD request. Any HTTP response, whatever its status,
// counts as reachable.
type HTTPProber struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

func (p *HTTPProber) Probe(ctx context.Context) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return fmt.Errorf("build probe: %w", err)
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

const (
	stateUnknown int32 = iota
	stateOnline
	stateOffline
)

// Monitor keeps an online flag and fires callbacks on transitions only.
// Until the first observation it reports online; that first observation
// counts as a transition, so a message left pending by an earlier run is
// flushed as soon as the endpoint is seen reachable.
type Monitor struct {
	prober   Prober
	interval time.Duration
	logger   *slog.Logger

	state atomic.Int32

	mu        sync.Mutex
	onOnline  []func(context.Context)
	onOffline []func(context.Context)
}

// NewMonitor probes with p every interval once Run is called.
func NewMonitor(p Prober, interval time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{prober: p, interval: interval, logger: logger}
}

// Online reports the last observed connectivity, true before the first check.
func (m *Monitor) Online() bool {
	return m.state.Load() != stateOffline
}

// OnOnline registers fn for offline-to-online transitions.
func (m *Monitor) OnOnline(fn func(context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOnline = append(m.onOnline, fn)
}

// OnOffline registers fn for online-to-offline transitions.
func (m *Monitor) OnOffline(fn func(context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOffline = append(m.onOffline, fn)
}

// Set records the connectivity and runs the matching callbacks if it changed.
func (m *Monitor) Set(ctx context.Context, online bool) {
	next := stateOffline
	if online {
		next = stateOnline
	}
	if m.state.Swap(next) == next {
		return
	}

	m.mu.Lock()
	var fns []func(context.Context)
	if online {
		fns = append(fns, m.onOnline...)
	} else {
		fns = append(fns, m.onOffline...)
	}
	m.mu.Unlock()

	m.logger.Info("Connectivity changed", "online", online)
	for _, fn := range fns {
		fn(ctx)
	}
}

// Check probes once and applies the result.
func (m *Monitor) Check(ctx context.Context) bool {
	err := m.prober.Probe(ctx)
	if err != nil && ctx.Err() != nil {
		// shutting down; not a connectivity signal
		return m.Online()
	}
	if err != nil {
		m.logger.Debug("Probe failed", "error", err)
	}
	m.Set(ctx, err == nil)
	return err == nil
}

// Run probes until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
