// Package metrics provides Prometheus instrumentation for command
// traffic on a watchman connection.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds the Prometheus collectors this client updates. All
// methods are nil-safe: calls on a nil *Registry are no-ops, so callers
// that do not care about metrics can pass nil everywhere.
type Registry struct {
	CommandsTotal          *prometheus.CounterVec
	ReconnectsTotal        prometheus.Counter
	CommandDurationSeconds prometheus.Histogram
}

// NewRegistry creates and registers the client's metrics with reg. If
// reg is nil, the collectors are created but never registered, which
// is useful in tests.
func NewRegistry(reg prometheus.Registerer) *Registry {
	m := &Registry{
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "watchman",
			Name:      "commands_total",
			Help:      "Total number of commands completed, by outcome.",
		}, []string{"outcome"}),
		ReconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "watchman",
			Name:      "reconnects_total",
			Help:      "Total number of times the client has reconnected to the service.",
		}),
		CommandDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "watchman",
			Name:      "command_duration_seconds",
			Help:      "Latency of command round trips.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(m.CommandsTotal, m.ReconnectsTotal, m.CommandDurationSeconds)
	}

	return m
}

// RecordCommand records the completion of one command with the given
// outcome ("ok" or "error") and its duration in seconds.
func (m *Registry) RecordCommand(outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(outcome).Inc()
	m.CommandDurationSeconds.Observe(durationSeconds)
}

// RecordReconnect increments the reconnect counter.
func (m *Registry) RecordReconnect() {
	if m == nil {
		return
	}
	m.ReconnectsTotal.Inc()
}

// RecordCancelled records a command that was cancelled before it
// completed normally, e.g. because the connection was torn down while
// it was queued or in flight.
func (m *Registry) RecordCancelled() {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues("cancelled").Inc()
}
