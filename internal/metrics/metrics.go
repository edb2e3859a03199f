// Package metrics defines the Prometheus collectors the site exports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Submissions  *prometheus.CounterVec
	CacheLookups *prometheus.CounterVec
	CacheInstall *prometheus.CounterVec
	Pending      prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "contact",
			Name:      "submissions_total",
			Help:      "Contact form submissions by terminal outcome.",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "asset_cache",
			Name:      "requests_total",
			Help:      "Asset cache lookups by result (hit or miss).",
		}, []string{"result"}),
		CacheInstall: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "asset_cache",
			Name:      "installs_total",
			Help:      "Asset cache version installs by result.",
		}, []string{"result"}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "portfolio",
			Subsystem: "contact",
			Name:      "pending_messages",
			Help:      "1 when a contact message is waiting for connectivity.",
		}),
	}
	reg.MustRegister(m.Submissions, m.CacheLookups, m.CacheInstall, m.Pending)
	return m
}

// Submission counts one contact outcome.
func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// CacheLookup counts one cache-first lookup.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// Install counts one cache install attempt.
func (m *Metrics) Install(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.CacheInstall.WithLabelValues("failed").Inc()
		return
	}
	m.CacheInstall.WithLabelValues("ok").Inc()
}

// SetPending reports whether the pending slot is occupied.
func (m *Metrics) SetPending(present bool) {
	if m == nil {
		return
	}
	if present {
		m.Pending.Set(1)
		return
	}
	m.Pending.Set(0)
}
