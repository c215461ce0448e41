package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/seismo-go/internal/scan"
)

// ScanMetrics contains the Prometheus metrics of the scan loop. It
// implements scan.Recorder.
type ScanMetrics struct {
	Archives        *prometheus.CounterVec
	Batches         prometheus.Counter
	Windows         prometheus.Counter
	BatchDuration   prometheus.Histogram
	WindowsPerBatch prometheus.Histogram
	Detections      *prometheus.CounterVec
	LastBatchTime   prometheus.Gauge
}

var _ scan.Recorder = (*ScanMetrics)(nil)

// NewScanMetrics creates the scan metrics and registers them with registry.
func NewScanMetrics(registry *prometheus.Registry) (*ScanMetrics, error) {
	m := &ScanMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register scan metrics: %w", err)
	}
	return m, nil
}

func (m *ScanMetrics) initMetrics() {
	m.Archives = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seismo_archives_total",
			Help: "Total number of archives processed partitioned by outcome.",
		},
		[]string{"status"},
	)
	m.Batches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "seismo_batches_total",
		Help: "Total number of batches classified.",
	})
	m.Windows = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "seismo_windows_total",
		Help: "Total number of classification windows scored.",
	})
	m.BatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "seismo_batch_duration_seconds",
		Help:    "Time taken to scan one batch, classification included.",
		Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12), // 10ms to ~20s
	})
	m.WindowsPerBatch = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "seismo_batch_windows",
		Help:    "Number of windows per classified batch.",
		Buckets: prometheus.ExponentialBuckets(BucketStart64, BucketFactor2, BucketCount12),
	})
	m.Detections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seismo_detections_total",
			Help: "Total number of phase detections partitioned by label.",
		},
		[]string{"label"},
	)
	m.LastBatchTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "seismo_last_batch_timestamp_seconds",
		Help: "Unix time of the most recently completed batch.",
	})
}

// RecordArchive counts an archive as scanned or skipped.
func (m *ScanMetrics) RecordArchive(status string) {
	m.Archives.WithLabelValues(status).Inc()
}

// RecordBatch records one classified batch.
func (m *ScanMetrics) RecordBatch(windows int, elapsed time.Duration) {
	m.Batches.Inc()
	m.Windows.Add(float64(windows))
	m.BatchDuration.Observe(elapsed.Seconds())
	m.WindowsPerBatch.Observe(float64(windows))
	m.LastBatchTime.SetToCurrentTime()
}

// RecordDetection counts one detection.
func (m *ScanMetrics) RecordDetection(label scan.Label) {
	m.Detections.WithLabelValues(string(label)).Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *ScanMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Archives.Describe(ch)
	ch <- m.Batches.Desc()
	ch <- m.Windows.Desc()
	ch <- m.BatchDuration.Desc()
	ch <- m.WindowsPerBatch.Desc()
	m.Detections.Describe(ch)
	ch <- m.LastBatchTime.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *ScanMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Archives.Collect(ch)
	ch <- m.Batches
	ch <- m.Windows
	ch <- m.BatchDuration
	ch <- m.WindowsPerBatch
	m.Detections.Collect(ch)
	ch <- m.LastBatchTime
}
