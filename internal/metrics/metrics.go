// Package metrics exposes Prometheus collectors for outbound catalog traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Duration of outbound catalog requests",
		Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
	}, []string{"component", "operation", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_request_total",
		Help: "Number of outbound catalog requests",
	}, []string{"component", "operation", "status"})

	LocaleOutcomeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fanout_locale_total",
		Help: "Per-locale outcomes of all-locales operations",
	}, []string{"operation", "outcome"})

	FanOutDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_fanout_duration_seconds",
		Help:    "Duration of all-locales operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	RatingUnavailableTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_rating_unavailable_total",
		Help: "Rating lookups answered with the unavailable placeholder",
	})
)

// MustRegister registers every collector of this package.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		NetworkRequestDuration,
		NetworkRequestTotal,
		LocaleOutcomeTotal,
		FanOutDuration,
		RatingUnavailableTotal,
	)
}

// Handler serves the collectors gathered by gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveNetworkRequest records duration and status of one outbound request.
func ObserveNetworkRequest(component, operation string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	status := statusOf(err)
	NetworkRequestDuration.WithLabelValues(component, operation, status).Observe(time.Since(start).Seconds())
	NetworkRequestTotal.WithLabelValues(component, operation, status).Inc()
}

// ObserveLocale counts one finished locale of an all-locales operation.
func ObserveLocale(operation, outcome string) {
	LocaleOutcomeTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveFanOut records the duration of an all-locales operation.
func ObserveFanOut(operation string, start time.Time, err error) {
	FanOutDuration.WithLabelValues(operation, statusOf(err)).Observe(time.Since(start).Seconds())
}

// IncRatingUnavailable counts an absorbed rating failure.
func IncRatingUnavailable() {
	RatingUnavailableTotal.Inc()
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
