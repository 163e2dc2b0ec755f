package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"SignalSentinel/internal/model"
	"SignalSentinel/internal/pipeline"
)

// Metrics holds the Prometheus collectors for analyses and data collection.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	SignalConfidence *prometheus.HistogramVec
	ActionableTotal  *prometheus.CounterVec
	CollectTotal     *prometheus.CounterVec
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_analyses_total",
			Help: "Analyses run, by result and failure reason",
		}, []string{"result", "reason"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_analysis_duration_seconds",
			Help:    "Wall-clock time of one analysis",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		SignalConfidence: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentinel_signal_confidence",
			Help:    "Confidence of generated signals after the data-quality penalty",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 9),
		}, []string{"direction"}),
		ActionableTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_actionable_total",
			Help: "Actionable signals, by overall risk level",
		}, []string{"risk_level"}),
		CollectTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_collect_total",
			Help: "Price series collected, by freshness tag",
		}, []string{"freshness"}),
	}

	m.registry.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.SignalConfidence,
		m.ActionableTotal,
		m.CollectTotal,
	)
	return m
}

// ObserveOutcome records one pipeline outcome.
func (m *Metrics) ObserveOutcome(out pipeline.Outcome) {
	m.AnalysisDuration.Observe(out.Elapsed.Seconds())
	if !out.Success {
		m.AnalysesTotal.WithLabelValues("failure", out.Reason()).Inc()
		return
	}
	m.AnalysesTotal.WithLabelValues("success", "").Inc()
	m.SignalConfidence.WithLabelValues(string(out.Result.Signal.Direction)).Observe(out.Result.Signal.Confidence)
	if out.Result.Risk.IsActionable {
		m.ActionableTotal.WithLabelValues(out.Result.Risk.OverallRisk.String()).Inc()
	}
}

// ObserveCollect records the freshness of a collected series.
func (m *Metrics) ObserveCollect(freshness model.Freshness) {
	m.CollectTotal.WithLabelValues(string(freshness)).Inc()
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
