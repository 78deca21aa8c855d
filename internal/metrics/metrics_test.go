// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// sampleCount returns how many observations a histogram has recorded.
func sampleCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecordModelReloadObservesOnlyTimedAttempts(t *testing.T) {
	before := sampleCount(t, ModelLoadDuration)

	RecordModelReload(ReloadUnchanged, 0)
	if got := sampleCount(t, ModelLoadDuration); got != before {
		t.Errorf("samples after untimed reload = %d, want %d", got, before)
	}

	RecordModelReload(ReloadLoaded, 250*time.Millisecond)
	if got := sampleCount(t, ModelLoadDuration); got != before+1 {
		t.Errorf("samples after timed reload = %d, want %d", got, before+1)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/recommend", "200"))
	RecordAPIRequest("POST", "/recommend", "200", 5*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/recommend", "200"))
	if after-before != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active after inc = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active after dec = %v, want %v", got, before)
	}
}

func TestRecordRecommendation(t *testing.T) {
	tests := []struct {
		path    string
		results int
	}{
		{PathFiltered, 5},
		{PathFallback, 10},
		{PathEmpty, 0},
		{PathNoModel, 0},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			before := testutil.ToFloat64(RecommendationsTotal.WithLabelValues(tt.path))
			RecordRecommendation(tt.path, tt.results, time.Millisecond)
			after := testutil.ToFloat64(RecommendationsTotal.WithLabelValues(tt.path))
			if after-before != 1 {
				t.Errorf("recommendations_total{path=%s} delta = %v, want 1", tt.path, after-before)
			}
		})
	}
}

func TestModelMetrics(t *testing.T) {
	loaded := time.Unix(1_700_000_000, 0)
	SetActiveModel(7, 1234, loaded)

	if got := testutil.ToFloat64(ModelVersion); got != 7 {
		t.Errorf("model_version = %v, want 7", got)
	}
	if got := testutil.ToFloat64(ModelMovies); got != 1234 {
		t.Errorf("model_movies = %v, want 1234", got)
	}
	if got := testutil.ToFloat64(ModelLoadedTimestamp); got != 1_700_000_000 {
		t.Errorf("model_loaded_timestamp = %v", got)
	}

	before := testutil.ToFloat64(ModelReloadsTotal.WithLabelValues(ReloadFailed))
	RecordModelReload(ReloadFailed, 0)
	if got := testutil.ToFloat64(ModelReloadsTotal.WithLabelValues(ReloadFailed)); got != before+1 {
		t.Errorf("model_reloads_total{failed} = %v, want %v", got, before+1)
	}
}

func TestSetCircuitBreakerState(t *testing.T) {
	tests := []struct {
		state string
		want  float64
	}{
		{"closed", 0},
		{"half-open", 1},
		{"open", 2},
	}
	for _, tt := range tests {
		SetCircuitBreakerState("model-store", tt.state)
		if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("model-store")); got != tt.want {
			t.Errorf("state %s = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestRecordEvents(t *testing.T) {
	topic := "test.topic"
	RecordEventPublished(topic, nil)
	RecordEventPublished(topic, errors.New("boom"))
	RecordEventReceived(topic)

	if got := testutil.ToFloat64(EventsPublished.WithLabelValues(topic, "success")); got != 1 {
		t.Errorf("published success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(EventsPublished.WithLabelValues(topic, "error")); got != 1 {
		t.Errorf("published error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(EventsReceived.WithLabelValues(topic)); got != 1 {
		t.Errorf("received = %v, want 1", got)
	}
}

func TestConcurrentRecording(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				RecordSimilarLookup(j%2 == 0)
				RecordBuildStage("vectorize", time.Millisecond)
			}
		}()
	}
	wg.Wait()
}
