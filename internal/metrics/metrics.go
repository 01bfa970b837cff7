// Package metrics holds the Prometheus collectors for the alert pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cowin_alert"

// Fetch results.
const (
	FetchOK          = "ok"
	FetchEmpty       = "empty"
	FetchInvalid     = "invalid_request"
	FetchRateLimited = "rate_limited"
	FetchError       = "error"
)

// Alert outcomes.
const (
	AlertSent          = "sent"
	AlertFailed        = "failed"
	AlertThrottled     = "throttled"
	AlertNoMatch       = "no_match"
	AlertNotActionable = "not_actionable"
)

// Metrics groups the collectors used by the scheduler.
type Metrics struct {
	Cycles        prometheus.Counter
	CyclesSkipped prometheus.Counter
	CycleDuration prometheus.Histogram
	Fetches       *prometheus.CounterVec
	Alerts        *prometheus.CounterVec
	StoreErrors   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycles_total",
			Help:      "Completed polling cycles.",
		}),
		CyclesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycles_skipped_total",
			Help:      "Cycles skipped while backing off after the provider rate limited us.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a polling cycle in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms .. ~51s
		}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetches_total",
			Help:      "Slot provider fetches by result.",
		}, []string{"result"}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "alerts_total",
			Help:      "Per-user alert decisions by outcome.",
		}, []string{"outcome"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "User directory failures by operation.",
		}, []string{"op"}),
	}
	reg.MustRegister(m.Cycles, m.CyclesSkipped, m.CycleDuration, m.Fetches, m.Alerts, m.StoreErrors)
	return m
}
