package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medwise/medwise-backend/internal/core/domain"
)

// PipelineMetrics observes uploads, analyses and prescription fan-out.
type PipelineMetrics struct {
	registry *prometheus.Registry
	service  string

	uploadsTotal     *prometheus.CounterVec
	analysisTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	analysisInFlight prometheus.Gauge
	fanOutDrugsTotal *prometheus.CounterVec
	breakerState     *prometheus.GaugeVec
}

// NewPipelineMetrics registers on registry, or on a private one when nil.
func NewPipelineMetrics(service string, registry *prometheus.Registry) *PipelineMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "uploads_total",
			Help:      "Image uploads by outcome.",
		},
		[]string{"service", "outcome"},
	)
	analysisTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "analysis_total",
			Help:      "Finished analyses by terminal status.",
		},
		[]string{"service", "status"},
	)
	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "analysis_duration_seconds",
			Help:      "Analysis duration in seconds by terminal status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"service", "status"},
	)
	analysisInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "analysis_in_flight",
			Help:      "Number of analyses currently running.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	fanOutDrugsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "fanout_drugs_total",
			Help:      "Prescription entries seen by fan-out, applied or skipped.",
		},
		[]string{"service", "result"},
	)

	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per outbound operation: 0 closed, 1 half-open, 2 open.",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(uploadsTotal, analysisTotal, analysisDuration, analysisInFlight, fanOutDrugsTotal, breakerState)

	return &PipelineMetrics{
		registry:         registry,
		service:          service,
		uploadsTotal:     uploadsTotal,
		analysisTotal:    analysisTotal,
		analysisDuration: analysisDuration,
		analysisInFlight: analysisInFlight,
		fanOutDrugsTotal: fanOutDrugsTotal,
		breakerState:     breakerState,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) UploadRejected(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.uploadsTotal.WithLabelValues(m.service, "rejected_"+reason).Inc()
}

func (m *PipelineMetrics) UploadAccepted() {
	m.uploadsTotal.WithLabelValues(m.service, "accepted").Inc()
}

func (m *PipelineMetrics) AnalysisStarted() {
	m.analysisInFlight.Inc()
}

func (m *PipelineMetrics) AnalysisFinished(status domain.AnalysisStatus, duration time.Duration) {
	m.analysisInFlight.Dec()
	m.analysisTotal.WithLabelValues(m.service, string(status)).Inc()
	m.analysisDuration.WithLabelValues(m.service, string(status)).Observe(duration.Seconds())
}

func (m *PipelineMetrics) FanOutApplied(applied, skipped int) {
	if applied > 0 {
		m.fanOutDrugsTotal.WithLabelValues(m.service, "applied").Add(float64(applied))
	}
	if skipped > 0 {
		m.fanOutDrugsTotal.WithLabelValues(m.service, "skipped").Add(float64(skipped))
	}
}

var breakerStateValues = map[string]float64{
	"closed":    0,
	"half-open": 1,
	"open":      2,
}

// BreakerStateChanged matches resilience.Config.OnStateChange.
func (m *PipelineMetrics) BreakerStateChanged(operation, state string) {
	value, ok := breakerStateValues[state]
	if !ok {
		return
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(value)
}
