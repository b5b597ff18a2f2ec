// Package metrics exposes Prometheus instruments for the prober, the sync
// orchestrator and the back-office server. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "harbormaster"

// Metrics owns a private registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	probes       *prometheus.CounterVec
	probeLatency prometheus.Histogram
	online       prometheus.Gauge
	ticks        *prometheus.CounterVec
	feeds        *prometheus.CounterVec
	skipped      prometheus.Counter
	requests     *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connectivity",
			Name:      "probes_total",
			Help:      "Connectivity probes by result (online, offline, simulated).",
		}, []string{"result"}),
		probeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "connectivity",
			Name:      "probe_latency_seconds",
			Help:      "Latency of successful connectivity probes.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 8},
		}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "connectivity",
			Name:      "online",
			Help:      "1 when the back office is considered reachable.",
		}),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "ticks_total",
			Help:      "Completed sync ticks by trigger and result.",
		}, []string{"trigger", "result"}),
		feeds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "feed_results_total",
			Help:      "Feed fetches by feed and outcome.",
		}, []string{"feed", "outcome"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "ticks_skipped_total",
			Help:      "Timer ticks skipped because the back office was offline or a tick was in flight.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "HTTP requests served by route and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(
		m.probes, m.probeLatency, m.online,
		m.ticks, m.feeds, m.skipped, m.requests,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveProbe records one settled probe.
func (m *Metrics) ObserveProbe(online, simulated bool, latency time.Duration) {
	if m == nil {
		return
	}
	switch {
	case simulated:
		m.probes.WithLabelValues("simulated").Inc()
	case online:
		m.probes.WithLabelValues("online").Inc()
		m.probeLatency.Observe(latency.Seconds())
	default:
		m.probes.WithLabelValues("offline").Inc()
	}
	if online {
		m.online.Set(1)
	} else {
		m.online.Set(0)
	}
}

// ObserveTick records one completed sync tick.
func (m *Metrics) ObserveTick(trigger string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.ticks.WithLabelValues(trigger, result).Inc()
}

// ObserveFeed records the outcome of one feed fetch.
func (m *Metrics) ObserveFeed(feed, outcome string) {
	if m == nil {
		return
	}
	m.feeds.WithLabelValues(feed, outcome).Inc()
}

// SkipTick counts a timer tick that did not run.
func (m *Metrics) SkipTick() {
	if m == nil {
		return
	}
	m.skipped.Inc()
}

// ObserveRequest counts one HTTP request.
func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
