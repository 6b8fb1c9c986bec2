// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "yt2blog"

// Metrics holds the application collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	TranscriptsTotal   *prometheus.CounterVec
	STTPollsTotal      *prometheus.CounterVec
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	PipelineDuration   *prometheus.HistogramVec
	PublishTotal       *prometheus.CounterVec
	ErrorsTotal        *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
}

// New registers all collectors, plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		TranscriptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_total",
			Help:      "Resolved transcripts by source",
		}, []string{"source"}),
		STTPollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_polls_total",
			Help:      "Speech-to-text job polls by reported status",
		}, []string{"status"}),
		GenerationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "article_generations_total",
			Help:      "Article generation attempts by result",
		}, []string{"result"}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "article_generation_duration_seconds",
			Help:      "Duration of language model calls",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
		}),
		PipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of a full generate run by transcript source",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		}, []string{"source"}),
		PublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Publish attempts by outcome",
		}, []string{"outcome"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Pipeline errors by stage and error type",
		}, []string{"stage", "error_type"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.TranscriptsTotal,
		m.STTPollsTotal,
		m.GenerationsTotal,
		m.GenerationDuration,
		m.PipelineDuration,
		m.PublishTotal,
		m.ErrorsTotal,
		m.HTTPRequestsTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordTranscript(source string) {
	m.TranscriptsTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordSTTPoll(status string) {
	m.STTPollsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordGeneration(err error, duration time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.GenerationsTotal.WithLabelValues(result).Inc()
	m.GenerationDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordPipeline(source string, duration time.Duration) {
	m.PipelineDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordPublish counts a publish by outcome: published, rejected or error.
func (m *Metrics) RecordPublish(outcome string) {
	m.PublishTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordError(stage, errorType string) {
	m.ErrorsTotal.WithLabelValues(stage, errorType).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, route, status string) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
}
