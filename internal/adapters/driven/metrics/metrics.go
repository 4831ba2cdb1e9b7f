// Package metrics records pipeline and model-call instrumentation with
// Prometheus. Each Recorder owns a private registry, so several recorders
// (one per test, say) never collide on metric names.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

const namespace = "manualqa"

// Ensure Recorder implements the interface.
var _ driven.Metrics = (*Recorder)(nil)

// Recorder is the Prometheus implementation of driven.Metrics.
type Recorder struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	modelCalls    *prometheus.CounterVec
	icons         *prometheus.CounterVec
	questions     *prometheus.CounterVec
	answerLatency prometheus.Histogram
}

// New creates a recorder with its own registry. Go runtime and process
// collectors are included so /metrics is useful on its own.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_stage_duration_seconds",
			Help:      "Duration of ingest stages.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"stage"}),
		stageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_stage_failures_total",
			Help:      "Ingest stages that returned an error.",
		}, []string{"stage"}),
		modelCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Calls to vision, LLM and embedding providers by outcome.",
		}, []string{"kind", "outcome"}),
		icons: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "icons_total",
			Help:      "Icons seen by each icon pipeline stage.",
		}, []string{"stage"}),
		questions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Answered questions by classified intent.",
		}, []string{"intent"}),
		answerLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_duration_seconds",
			Help:      "End-to-end question answering latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// ObserveStage records how long an ingest stage took and whether it failed.
func (r *Recorder) ObserveStage(stage string, d time.Duration, err error) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		r.stageFailures.WithLabelValues(stage).Inc()
	}
}

// CountModelCall records one provider call.
func (r *Recorder) CountModelCall(kind, outcome string) {
	r.modelCalls.WithLabelValues(kind, outcome).Inc()
}

// AddIcons records icon pipeline counts. Non-positive counts are ignored.
func (r *Recorder) AddIcons(stage string, n int) {
	if n <= 0 {
		return
	}
	r.icons.WithLabelValues(stage).Add(float64(n))
}

// ObserveQuestion records one answered question.
func (r *Recorder) ObserveQuestion(intent string, d time.Duration) {
	r.questions.WithLabelValues(intent).Inc()
	r.answerLatency.Observe(d.Seconds())
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
