// Package services – Prometheus instrumentation for the pipeline and the
// provider boundary. Label cardinality is bounded: outcomes and provider
// names come from small fixed sets.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// updatesTotal counts processed webhook updates by terminal outcome.
	updatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_updates_total",
			Help: "Total number of processed webhook updates by outcome.",
		},
		[]string{"outcome"},
	)

	// providerCalls counts generation attempts by provider and result.
	providerCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_provider_calls_total",
			Help: "Total number of image-provider calls by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	// providerLatency records generation call duration in seconds.
	providerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "relay_provider_duration_seconds",
			Help: "Duration of image-provider calls in seconds.",
			// Generation calls run for tens of seconds; default buckets
			// would saturate.
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 90, 120, 180},
		},
		[]string{"provider"},
	)
)

// Pipeline outcome label values.
const (
	outcomeDuplicate  = "duplicate"
	outcomeDenied     = "denied"
	outcomeNoPrompt   = "no_prompt"
	outcomeSuccess    = "success"
	outcomeRestricted = "restricted"
	outcomeFailed     = "failed"
	outcomeIgnored    = "ignored"
	outcomeInfo       = "info"
)

func init() {
	prometheus.MustRegister(updatesTotal, providerCalls, providerLatency)
}
