// Package metrics exposes Prometheus collectors for the gavel host.
//
// Only the host loop updates these; the deterministic core never touches
// them, so replicas stay byte-identical regardless of scrape traffic.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the gavel-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	commandsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gavel",
			Subsystem: "apply",
			Name:      "commands_total",
			Help:      "Total number of command frames applied.",
		},
		[]string{"template"},
	)

	timersFired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gavel",
			Subsystem: "apply",
			Name:      "timers_fired_total",
			Help:      "Total number of timer deadlines delivered.",
		},
	)

	snapshotDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gavel",
			Subsystem: "snapshot",
			Name:      "duration_seconds",
			Help:      "Duration of snapshot serialization.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	sessionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gavel",
			Subsystem: "sessions",
			Name:      "open",
			Help:      "Current number of open client sessions.",
		},
	)
)

func init() {
	Registry.MustRegister(commandsApplied, timersFired, snapshotDuration, sessionsOpen)
}

// CommandApplied records one applied command frame.
func CommandApplied(template string) {
	commandsApplied.WithLabelValues(template).Inc()
}

// TimerFired records one delivered timer deadline.
func TimerFired() {
	timersFired.Inc()
}

// SnapshotTaken records the duration of one snapshot serialization.
func SnapshotTaken(seconds float64) {
	snapshotDuration.Observe(seconds)
}

// SessionOpened increments the open session gauge.
func SessionOpened() {
	sessionsOpen.Inc()
}

// SessionClosed decrements the open session gauge.
func SessionClosed() {
	sessionsOpen.Dec()
}

// Handler returns the HTTP handler serving the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
