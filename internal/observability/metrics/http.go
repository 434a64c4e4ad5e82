package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"

	"github.com/micromerit/ai-service/internal/core/domain"
)

const namespace = "micromerit"

// HTTPServerMetrics covers the API process: HTTP traffic plus the
// extraction pipeline it runs inline.
type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	textExtractionTotal *prometheus.CounterVec
	textExtractionChars *prometheus.HistogramVec
	certificateIDTotal  *prometheus.CounterVec
	enrichmentTotal     *prometheus.CounterVec
	llmFeatureTotal     *prometheus.CounterVec
	breakerState        *prometheus.GaugeVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	textExtractionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "text_total",
			Help:      "Documents turned into text, by extraction method.",
		},
		[]string{"service", "method"},
	)
	textExtractionChars := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "text_chars",
			Help:      "Characters of text extracted per document.",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"service", "method"},
	)
	certificateIDTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "certificate_id_total",
			Help:      "Certificate id extraction results by status.",
		},
		[]string{"service", "status"},
	)
	enrichmentTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "llm_enrichment_total",
			Help:      "LLM identifier enrichment outcomes.",
		},
		[]string{"service", "outcome"},
	)
	llmFeatureTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "feature_requests_total",
			Help:      "LLM backed feature requests by outcome.",
		},
		[]string{"service", "feature", "outcome"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		textExtractionTotal,
		textExtractionChars,
		certificateIDTotal,
		enrichmentTotal,
		llmFeatureTotal,
		breakerState,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		service:             service,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		textExtractionTotal: textExtractionTotal,
		textExtractionChars: textExtractionChars,
		certificateIDTotal:  certificateIDTotal,
		enrichmentTotal:     enrichmentTotal,
		llmFeatureTotal:     llmFeatureTotal,
		breakerState:        breakerState,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/credentials/"):
		return "/v1/credentials/{credential_id}"
	case strings.HasPrefix(path, "/v1/learners/"):
		return "/v1/learners/{email}/skills.xlsx"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) ObserveTextExtraction(method domain.ExtractionMethod, chars int) {
	label := string(method)
	if label == "" {
		label = "unknown"
	}
	m.textExtractionTotal.WithLabelValues(m.service, label).Inc()
	m.textExtractionChars.WithLabelValues(m.service, label).Observe(float64(chars))
}

func (m *HTTPServerMetrics) ObserveCertificateID(status domain.ExtractionStatus) {
	m.certificateIDTotal.WithLabelValues(m.service, string(status)).Inc()
}

func (m *HTTPServerMetrics) ObserveEnrichment(outcome string) {
	m.enrichmentTotal.WithLabelValues(m.service, outcome).Inc()
}

// RecordLLMFeature counts one request to an LLM backed endpoint.
func (m *HTTPServerMetrics) RecordLLMFeature(feature string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.llmFeatureTotal.WithLabelValues(m.service, feature, outcome).Inc()
}

// ObserveBreakerState matches resilience.StateListener.
func (m *HTTPServerMetrics) ObserveBreakerState(operation string, _, to gobreaker.State) {
	m.breakerState.WithLabelValues(m.service, operation).Set(breakerStateValue(to))
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
