// Package metrics defines the Prometheus instruments exported by repohost.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "repohost"

// Update outcomes.
const (
	ResultOK          = "ok"
	ResultConflict    = "conflict"
	ResultUnignorable = "unignorable"
)

// Provisioned kinds.
const (
	KindProject    = "project"
	KindRepository = "repository"
	KindUser       = "user"
)

// Metrics groups the collectors recorded by the engine.
type Metrics struct {
	Updates      *prometheus.CounterVec
	Provisioned  *prometheus.CounterVec
	ReadDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Resource update attempts by result.",
		}, []string{"result"}),
		Provisioned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provisioned_total",
			Help:      "Provisioned projects, repositories and users.",
		}, []string{"kind"}),
		ReadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "read_duration_seconds",
			Help:      "Latency of read operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	if reg != nil {
		reg.MustRegister(m.Updates, m.Provisioned, m.ReadDuration)
	}
	return m
}

// Update counts one update attempt.
func (m *Metrics) Update(result string) {
	if m == nil {
		return
	}
	m.Updates.WithLabelValues(result).Inc()
}

// Provision counts one provisioned object.
func (m *Metrics) Provision(kind string) {
	if m == nil {
		return
	}
	m.Provisioned.WithLabelValues(kind).Inc()
}

// ObserveRead returns a function that records the elapsed time of operation
// when called.
func (m *Metrics) ObserveRead(operation string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.ReadDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
