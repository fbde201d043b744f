// Package metrics provides custom Prometheus metrics for voicedetect-go.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// DetectionMetrics contains all Prometheus metrics related to the inference
// pipeline.
type DetectionMetrics struct {
	PredictionTotal    *prometheus.CounterVec
	PredictionDuration prometheus.Histogram
	PipelineErrors     *prometheus.CounterVec
	DownloadBytes      prometheus.Histogram
	ModelLoadedGauge   prometheus.Gauge

	registry *prometheus.Registry
}

// NewDetectionMetrics creates a new instance of DetectionMetrics registered
// against the given registry.
func NewDetectionMetrics(registry *prometheus.Registry) (*DetectionMetrics, error) {
	m := &DetectionMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register detection metrics: %w", err)
	}
	return m, nil
}

func (m *DetectionMetrics) initMetrics() {
	m.PredictionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicedetect_predictions_total",
			Help: "Total number of completed predictions partitioned by reported label.",
		},
		[]string{"label"},
	)
	m.PredictionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "voicedetect_prediction_duration_seconds",
			Help:    "End-to-end time of one prediction request.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
	m.PipelineErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicedetect_pipeline_errors_total",
			Help: "Total number of failed predictions partitioned by error category.",
		},
		[]string{"category"},
	)
	m.DownloadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "voicedetect_download_bytes",
			Help:    "Size of fetched audio resources in bytes.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)
	m.ModelLoadedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "voicedetect_model_loaded",
			Help: "Whether a trained model artifact is loaded (1) or not (0).",
		},
	)
}

// Describe implements the prometheus.Collector interface.
func (m *DetectionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.PredictionTotal.Describe(ch)
	m.PredictionDuration.Describe(ch)
	m.PipelineErrors.Describe(ch)
	m.DownloadBytes.Describe(ch)
	m.ModelLoadedGauge.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *DetectionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.PredictionTotal.Collect(ch)
	m.PredictionDuration.Collect(ch)
	m.PipelineErrors.Collect(ch)
	m.DownloadBytes.Collect(ch)
	m.ModelLoadedGauge.Collect(ch)
}
