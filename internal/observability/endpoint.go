package observability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/tphakala/seismo-go/internal/conf"
	"github.com/tphakala/seismo-go/internal/logger"
	"github.com/tphakala/seismo-go/internal/observability/metrics"
)

// Endpoint serves /metrics over HTTP for the duration of a scan.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	metrics       *Metrics
}

// NewEndpoint returns an endpoint for the configured listen address. It
// fails when metrics are disabled.
func NewEndpoint(settings *conf.Settings, m *Metrics) (*Endpoint, error) {
	if !settings.Telemetry.Metrics.Enabled {
		return nil, fmt.Errorf("metrics not enabled in settings")
	}
	return &Endpoint{
		listenAddress: settings.Telemetry.Metrics.Listen,
		metrics:       m,
	}, nil
}

// Start binds the listen address and serves until ctx is done. The server
// goroutines are tracked by wg. The bound address is returned so a ":0"
// listener can be discovered.
func (e *Endpoint) Start(ctx context.Context, wg *sync.WaitGroup) (string, error) {
	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)

	ln, err := net.Listen("tcp", e.listenAddress)
	if err != nil {
		return "", fmt.Errorf("metrics endpoint listen on %s: %w", e.listenAddress, err)
	}

	e.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	addr := ln.Addr().String()
	wg.Go(func() {
		GetLogger().Info("metrics endpoint starting", logger.String("address", addr))
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			GetLogger().Error("metrics HTTP server error", logger.Error(err))
		}
	})
	wg.Go(func() {
		<-ctx.Done()
		e.shutdown()
	})
	return addr, nil
}

func (e *Endpoint) shutdown() {
	GetLogger().Info("stopping metrics endpoint")
	ctx, cancel := context.WithTimeout(context.Background(), metrics.ShutdownTimeout)
	defer cancel()
	if err := e.server.Shutdown(ctx); err != nil {
		GetLogger().Error("metrics endpoint shutdown error", logger.Error(err))
	}
}

// GetMetrics returns the metrics served by the endpoint.
func (e *Endpoint) GetMetrics() *Metrics {
	return e.metrics
}
