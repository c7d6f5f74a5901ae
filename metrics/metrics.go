// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalog"

// Create outcomes.
const (
	OutcomeCreated       = "created"
	OutcomeConflict      = "conflict"
	OutcomeUnprocessable = "unprocessable"
	OutcomeInvalid       = "invalid"
	OutcomeError         = "error"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route template, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route template and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	CreateOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "create_outcomes_total",
		Help:      "Create requests by entity and outcome.",
	}, []string{"entity", "outcome"})

	TrackPlays = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "track_plays_total",
		Help:      "Track play increments committed.",
	})
)

// RecordCreate counts one create attempt.
func RecordCreate(entity, outcome string) {
	CreateOutcomes.WithLabelValues(entity, outcome).Inc()
}

// RecordPlays counts committed play increments.
func RecordPlays(n int) {
	TrackPlays.Add(float64(n))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
