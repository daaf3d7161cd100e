// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics holds the Prometheus collectors for the scheduler and the
// HTTP layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lunchvote"

// Metrics is a set of collectors registered on one registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	Ticks               *prometheus.CounterVec
	TickErrors          *prometheus.CounterVec
	OpenCycle           prometheus.Gauge
	BallotsSubmitted    *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	TieBreaks           prometheus.Counter
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Scheduler ticks by resulting transition.",
		}, []string{"transition"}),
		TickErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_errors_total",
			Help:      "Scheduler tick failures by phase.",
		}, []string{"phase"}),
		OpenCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_cycle",
			Help:      "1 while a cycle accepts ballots.",
		}),
		BallotsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ballots_submitted_total",
			Help:      "Accepted ballot submissions.",
		}, []string{"kind"}),
		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Announcements that could not be delivered.",
		}, []string{"kind"}),
		TieBreaks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tie_breaks_total",
			Help:      "Tallies resolved by a tie-break voter.",
		}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Ticks,
		m.TickErrors,
		m.OpenCycle,
		m.BallotsSubmitted,
		m.NotificationsFailed,
		m.TieBreaks,
		m.HTTPRequestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Tick(transition string) {
	if m == nil {
		return
	}
	m.Ticks.WithLabelValues(transition).Inc()
}

func (m *Metrics) TickError(phase string) {
	if m == nil {
		return
	}
	m.TickErrors.WithLabelValues(phase).Inc()
}

func (m *Metrics) SetOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.OpenCycle.Set(1)
	} else {
		m.OpenCycle.Set(0)
	}
}

func (m *Metrics) Ballot(replaced bool) {
	if m == nil {
		return
	}
	kind := "new"
	if replaced {
		kind = "replaced"
	}
	m.BallotsSubmitted.WithLabelValues(kind).Inc()
}

func (m *Metrics) NotificationFailed(kind string) {
	if m == nil {
		return
	}
	m.NotificationsFailed.WithLabelValues(kind).Inc()
}

func (m *Metrics) TieBreak() {
	if m == nil {
		return
	}
	m.TieBreaks.Inc()
}

func (m *Metrics) ObserveRequest(method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, status).Observe(seconds)
}
