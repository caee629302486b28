// Package metrics exposes Prometheus collectors for the AI pipelines.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fintrack"

// Pipeline names.
const (
	PipelineExtraction = "extraction"
	PipelineAdvisory   = "advisory"
)

type Metrics struct {
	registry        *prometheus.Registry
	pipelineRuns    *prometheus.CounterVec
	droppedItems    prometheus.Counter
	summaryFallback prometheus.Counter
	inference       *prometheus.HistogramVec
	events          *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline invocations by pipeline and outcome (ok or error kind).",
		}, []string{"pipeline", "outcome"}),
		droppedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_dropped_items_total",
			Help:      "Line items rejected by structural validation.",
		}),
		summaryFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_summary_fallbacks_total",
			Help:      "Scans that used the default description.",
		}),
		inference: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Latency of calls to the generative model.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expense_events_total",
			Help:      "Expense events published or exported, by type and result.",
		}, []string{"type", "result"}),
	}
	reg.MustRegister(
		m.pipelineRuns,
		m.droppedItems,
		m.summaryFallback,
		m.inference,
		m.events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// PipelineRun counts one invocation; outcome is "ok" or an error kind.
func (m *Metrics) PipelineRun(pipeline, outcome string) {
	if m == nil {
		return
	}
	m.pipelineRuns.WithLabelValues(pipeline, outcome).Inc()
}

func (m *Metrics) DroppedItems(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.droppedItems.Add(float64(n))
}

func (m *Metrics) SummaryFallback() {
	if m == nil {
		return
	}
	m.summaryFallback.Inc()
}

func (m *Metrics) ObserveInference(d time.Duration, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.inference.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Metrics) EventPublished(eventType string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.events.WithLabelValues(eventType, result).Inc()
}
