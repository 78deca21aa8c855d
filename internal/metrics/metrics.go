// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package metrics registers the Prometheus collectors for Marquee.
//
// Collectors are created with promauto on the default registry and exposed
// by the server at GET /metrics. Record* helpers keep label handling in one
// place so call sites stay one line.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recommendation paths.
const (
	PathFiltered = "filtered"
	PathFallback = "fallback"
	PathEmpty    = "empty"
	PathNoModel  = "no_model"
)

// Reload results.
const (
	ReloadLoaded    = "loaded"
	ReloadUnchanged = "unchanged"
	ReloadFailed    = "failed"
	ReloadNotFound  = "not_found"
	ReloadThrottled = "throttled"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Recommendation Metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_recommendations_total",
			Help: "Recommendation requests by ranking path (filtered, fallback, empty, no_model)",
		},
		[]string{"path"},
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marquee_recommendation_duration_seconds",
			Help:    "Time spent filtering and ranking the catalog for one request",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	RecommendationResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marquee_recommendation_results",
			Help:    "Number of movies returned per recommendation request",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	SimilarCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marquee_similar_cache_hits_total",
			Help: "Similar-movie lookups served from cache",
		},
	)

	SimilarCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marquee_similar_cache_misses_total",
			Help: "Similar-movie lookups computed from the snapshot",
		},
	)

	// Model Lifecycle Metrics
	ModelReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_model_reloads_total",
			Help: "Model reload attempts by result",
		},
		[]string{"result"},
	)

	ModelLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marquee_model_load_duration_seconds",
			Help:    "Time to read, verify and decode a model artifact",
			Buckets: prometheus.DefBuckets,
		},
	)

	ModelMovies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marquee_model_movies",
			Help: "Number of movies in the active snapshot",
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marquee_model_version",
			Help: "Version of the active snapshot (0 = none loaded)",
		},
	)

	ModelLoadedTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marquee_model_loaded_timestamp_seconds",
			Help: "Unix time the active snapshot was loaded",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marquee_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Offline Build Metrics
	BuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marquee_build_stage_duration_seconds",
			Help:    "Duration of offline build stages",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"stage"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_events_published_total",
			Help: "Model events published by result",
		},
		[]string{"topic", "result"},
	)

	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_events_received_total",
			Help: "Model events received",
		},
		[]string{"topic"},
	)
)

// RecordAPIRequest records API request metrics.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records one ranking pass.
func RecordRecommendation(path string, results int, duration time.Duration) {
	RecommendationsTotal.WithLabelValues(path).Inc()
	RecommendationResults.Observe(float64(results))
	if duration > 0 {
		RecommendationDuration.Observe(duration.Seconds())
	}
}

// RecordSimilarLookup records a similar-movie cache hit or miss.
func RecordSimilarLookup(hit bool) {
	if hit {
		SimilarCacheHits.Inc()
	} else {
		SimilarCacheMisses.Inc()
	}
}

// RecordModelReload records a reload attempt. Duration is observed only for
// attempts that actually read an artifact.
func RecordModelReload(result string, duration time.Duration) {
	ModelReloadsTotal.WithLabelValues(result).Inc()
	if duration > 0 {
		ModelLoadDuration.Observe(duration.Seconds())
	}
}

// SetActiveModel publishes the identity of the active snapshot.
func SetActiveModel(version, movies int, loadedAt time.Time) {
	ModelVersion.Set(float64(version))
	ModelMovies.Set(float64(movies))
	ModelLoadedTimestamp.Set(float64(loadedAt.Unix()))
}

// SetCircuitBreakerState maps a gobreaker state name to the gauge value.
func SetCircuitBreakerState(name, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	CircuitBreakerState.WithLabelValues(name).Set(v)
}

// RecordBuildStage records the duration of one offline build stage.
func RecordBuildStage(stage string, duration time.Duration) {
	BuildDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordEventPublished records a publish attempt.
func RecordEventPublished(topic string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	EventsPublished.WithLabelValues(topic, result).Inc()
}

// RecordEventReceived records a consumed event.
func RecordEventReceived(topic string) {
	EventsReceived.WithLabelValues(topic).Inc()
}
