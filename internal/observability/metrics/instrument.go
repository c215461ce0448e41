package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/scan"
)

// StageMetrics times the classifier and the output sinks.
type StageMetrics struct {
	InferenceTotal    *prometheus.CounterVec
	InferenceErrors   *prometheus.CounterVec
	InferenceDuration *prometheus.HistogramVec
	OutputTotal       *prometheus.CounterVec
	OutputDuration    *prometheus.HistogramVec
	OutputDetections  *prometheus.CounterVec
}

// NewStageMetrics creates the stage metrics and registers them with registry.
func NewStageMetrics(registry *prometheus.Registry) (*StageMetrics, error) {
	m := &StageMetrics{
		InferenceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seismo_inference_total",
			Help: "Total number of classifier calls",
		}, []string{"model", "status"}),
		InferenceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seismo_inference_errors_total",
			Help: "Total number of classifier errors",
		}, []string{"model", "error_type"}),
		InferenceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seismo_inference_duration_seconds",
			Help:    "Time taken to score the windows of one batch",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15), // 1ms to ~16s
		}, []string{"model"}),
		OutputTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seismo_output_writes_total",
			Help: "Total number of sink writes",
		}, []string{"sink", "status"}),
		OutputDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seismo_output_write_duration_seconds",
			Help:    "Time taken to write the detections of one batch",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
		}, []string{"sink"}),
		OutputDetections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seismo_output_detections_total",
			Help: "Total number of detections written",
		}, []string{"sink"}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register stage metrics: %w", err)
	}
	return m, nil
}

// RecordInference records one classifier call.
func (m *StageMetrics) RecordInference(model string, elapsed time.Duration, err error) {
	if err != nil {
		m.InferenceTotal.WithLabelValues(model, StatusError).Inc()
		m.InferenceErrors.WithLabelValues(model, categorizeError(err)).Inc()
		return
	}
	m.InferenceTotal.WithLabelValues(model, StatusSuccess).Inc()
	m.InferenceDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}

// RecordOutput records one sink write.
func (m *StageMetrics) RecordOutput(sink string, detections int, elapsed time.Duration, err error) {
	if err != nil {
		m.OutputTotal.WithLabelValues(sink, StatusError).Inc()
		return
	}
	m.OutputTotal.WithLabelValues(sink, StatusSuccess).Inc()
	m.OutputDuration.WithLabelValues(sink).Observe(elapsed.Seconds())
	m.OutputDetections.WithLabelValues(sink).Add(float64(detections))
}

// Classifier wraps c so every call is recorded under model.
func (m *StageMetrics) Classifier(c scan.Classifier, model string) scan.Classifier {
	return scan.ClassifierFunc(func(ctx context.Context, w scan.Windows) (scan.ScoreMatrix, error) {
		start := time.Now()
		scores, err := c.Score(ctx, w)
		m.RecordInference(model, time.Since(start), err)
		return scores, err
	})
}

// Sink wraps s so every write is recorded under name.
func (m *StageMetrics) Sink(s scan.Sink, name string) scan.Sink {
	return scan.SinkFunc(func(ctx context.Context, detections []scan.Detection) error {
		start := time.Now()
		err := s.Write(ctx, detections)
		m.RecordOutput(name, len(detections), time.Since(start), err)
		return err
	})
}

// categorizeError labels err by its error category.
func categorizeError(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) && ee.Category != "" {
		return string(ee.Category)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return string(errors.CategoryCancellation)
	}
	return "unknown"
}

// Describe implements the prometheus.Collector interface.
func (m *StageMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.InferenceTotal.Describe(ch)
	m.InferenceErrors.Describe(ch)
	m.InferenceDuration.Describe(ch)
	m.OutputTotal.Describe(ch)
	m.OutputDuration.Describe(ch)
	m.OutputDetections.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *StageMetrics) Collect(ch chan<- prometheus.Metric) {
	m.InferenceTotal.Collect(ch)
	m.InferenceErrors.Collect(ch)
	m.InferenceDuration.Collect(ch)
	m.OutputTotal.Collect(ch)
	m.OutputDuration.Collect(ch)
	m.OutputDetections.Collect(ch)
}
