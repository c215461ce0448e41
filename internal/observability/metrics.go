// Package observability exposes the scanner's Prometheus metrics. Error
// telemetry lives in the errors package.
package observability

import (
	"fmt"
	stdlog "log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tphakala/seismo-go/internal/observability/metrics"
)

// Metrics holds all the metric collectors of a scan.
type Metrics struct {
	registry *prometheus.Registry
	Scan     *metrics.ScanMetrics
	Stages   *metrics.StageMetrics
}

// NewMetrics creates a registry with the scan, stage, process and Go
// runtime collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register Go collector: %w", err)
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("failed to register process collector: %w", err)
	}

	scanMetrics, err := metrics.NewScanMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan metrics: %w", err)
	}
	stageMetrics, err := metrics.NewStageMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Scan:     scanMetrics,
		Stages:   stageMetrics,
	}, nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterHandlers registers the metrics endpoint with mux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      stdlog.New(os.Stderr, "metrics handler: ", stdlog.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	}))
}
