package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/medwise/medwise-backend/internal/core/domain"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/api/analyze/abc":          "/api/analyze/{image_id}",
		"/api/analyze/abc/response": "/api/analyze/{image_id}/response",
		"/api/readings/bp/r-1":      "/api/readings/bp/{reading_id}",
		"/api/readings/glucose/r-1": "/api/readings/glucose/{reading_id}",
		"/lab-reports/count":        "/lab-reports/count",
		"/lab-reports/rep-1":        "/lab-reports/{report_id}",
		"/user-drugs/all-drugs":     "/user-drugs/all-drugs",
		"/api/upload":               "/api/upload",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPipelineMetricsShareRegistry(t *testing.T) {
	httpMetrics := NewHTTPServerMetrics("api")
	pipeline := NewPipelineMetrics("api", httpMetrics.Registry())

	pipeline.UploadAccepted()
	pipeline.AnalysisStarted()
	pipeline.AnalysisFinished(domain.StatusCompleted, 2*time.Second)
	pipeline.FanOutApplied(2, 1)

	if got := testutil.ToFloat64(pipeline.analysisTotal.WithLabelValues("api", "completed")); got != 1 {
		t.Fatalf("expected 1 completed analysis, got %v", got)
	}
	if got := testutil.ToFloat64(pipeline.analysisInFlight); got != 0 {
		t.Fatalf("expected no in-flight analyses, got %v", got)
	}
	if got := testutil.ToFloat64(pipeline.fanOutDrugsTotal.WithLabelValues("api", "skipped")); got != 1 {
		t.Fatalf("expected 1 skipped drug, got %v", got)
	}

	rec := httptest.NewRecorder()
	httpMetrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "medwise_pipeline_uploads_total") {
		t.Fatalf("pipeline metrics missing from shared endpoint")
	}
}

func TestBreakerStateGauge(t *testing.T) {
	pipeline := NewPipelineMetrics("worker", nil)

	pipeline.BreakerStateChanged("gemini.generate", "open")
	if got := testutil.ToFloat64(pipeline.breakerState.WithLabelValues("worker", "gemini.generate")); got != 2 {
		t.Fatalf("expected open breaker gauge 2, got %v", got)
	}
	pipeline.BreakerStateChanged("gemini.generate", "half-open")
	if got := testutil.ToFloat64(pipeline.breakerState.WithLabelValues("worker", "gemini.generate")); got != 1 {
		t.Fatalf("expected half-open breaker gauge 1, got %v", got)
	}
	pipeline.BreakerStateChanged("gemini.generate", "bogus")
	if got := testutil.ToFloat64(pipeline.breakerState.WithLabelValues("worker", "gemini.generate")); got != 1 {
		t.Fatalf("unknown states must be ignored, got %v", got)
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/upload", nil))

	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodPost, "/api/upload", "202")); got != 1 {
		t.Fatalf("expected one recorded request, got %v", got)
	}
}
