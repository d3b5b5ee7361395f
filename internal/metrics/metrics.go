// Package metrics exposes Prometheus instrumentation for the script
// execution pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsReceived counts events handed to the orchestrator.
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptarr_events_received_total",
			Help: "Total number of media-server events dispatched",
		},
		[]string{"event_type"},
	)

	// ScriptRuns counts per-setting outcomes.
	ScriptRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptarr_script_runs_total",
			Help: "Total number of per-setting script outcomes",
		},
		[]string{"outcome"},
	)

	// ScriptsInFlight tracks processes currently holding a gate slot.
	ScriptsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scriptarr_scripts_in_flight",
			Help: "Script processes currently executing",
		},
	)

	// RunDuration observes wall time of launched scripts.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scriptarr_run_duration_seconds",
			Help:    "Duration of launched script processes in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms .. ~100s
		},
	)
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
