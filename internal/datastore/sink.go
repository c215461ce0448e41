package datastore

import (
	"context"
	"strings"
	"sync"

	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/logger"
	"github.com/tphakala/seismo-go/internal/scan"
)

// Sink stores the detections of one run.
type Sink struct {
	store Interface
	run   *ScanRun

	mu      sync.Mutex
	written int
	status  string
}

// NewSink records run as started and returns a sink for its detections.
func NewSink(store Interface, run scan.Run) (*Sink, error) {
	record, err := store.BeginRun(run)
	if err != nil {
		return nil, err
	}
	GetLogger().Info("scan run recorded",
		logger.String("run_id", record.UUID),
		logger.Uint64("id", uint64(record.ID)))
	return &Sink{store: store, run: record, status: StatusCompleted}, nil
}

// Run returns the stored run.
func (s *Sink) Run() ScanRun {
	return *s.run
}

// Write stores the detections of one batch.
func (s *Sink) Write(ctx context.Context, detections []scan.Detection) error {
	if len(detections) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := make([]Detection, len(detections))
	for i, d := range detections {
		rows[i] = fromScan(d)
	}
	if err := s.store.SaveDetections(s.run.ID, rows); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryOutput).
			Context("batch", detections[0].Batch).
			Build()
	}

	s.mu.Lock()
	s.written += len(rows)
	s.mu.Unlock()
	return nil
}

// SetStatus sets the status recorded by Close.
func (s *Sink) SetStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Written returns the number of stored detections.
func (s *Sink) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Close finishes the run and closes the store.
func (s *Sink) Close() error {
	s.mu.Lock()
	status, written := s.status, s.written
	s.mu.Unlock()

	finishErr := s.store.FinishRun(s.run.ID, status, written)
	return errors.Join(finishErr, s.store.Close())
}

func fromScan(d scan.Detection) Detection {
	return Detection{
		Label:      string(d.Label),
		Time:       d.Time.UTC(),
		Score:      d.Score,
		Amplitude:  d.Amplitude,
		Archive:    d.Archive,
		TraceGroup: d.Group,
		Batch:      d.Batch,
		Offset:     d.Offset,
		Traces:     strings.Join(d.Traces, ";"),
	}
}
