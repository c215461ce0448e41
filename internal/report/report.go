// Package report delivers scan detections to files, MQTT brokers and other
// sinks.
package report

import (
	"context"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/logger"
	"github.com/tphakala/seismo-go/internal/scan"
)

// TimeLayout formats detection times, always in UTC with microseconds.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// FormatScore renders a pseudo-probability with precision decimals.
func FormatScore(score float32, precision int) string {
	return strconv.FormatFloat(float64(score), 'f', precision, 32)
}

// MultiSink writes every batch to all sinks in order and stops at the
// first failure.
type MultiSink struct {
	sinks []scan.Sink
}

// NewMultiSink returns a sink fanning out to sinks.
func NewMultiSink(sinks ...scan.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Add appends a sink.
func (m *MultiSink) Add(s scan.Sink) {
	m.sinks = append(m.sinks, s)
}

// Len returns the number of sinks.
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

func (m *MultiSink) Write(ctx context.Context, detections []scan.Detection) error {
	for _, s := range m.sinks {
		if err := s.Write(ctx, detections); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink that implements io.Closer.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the report module logger.
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("report")
	})
	return serviceLogger
}
