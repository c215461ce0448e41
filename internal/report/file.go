package report

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/tphakala/seismo-go/internal/conf"
	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/logger"
	"github.com/tphakala/seismo-go/internal/scan"
)

// csvHeader is written once at the top of an empty CSV file.
var csvHeader = []string{"time", "label", "score", "amplitude", "archive", "group", "batch", "traces"}

// WriterSink renders detections as text lines or CSV records. Every batch
// is flushed before Write returns.
type WriterSink struct {
	mu        sync.Mutex
	w         *bufio.Writer
	csv       *csv.Writer
	format    string
	precision int
	closer    io.Closer
	written   int
}

// NewWriterSink writes to w. header controls the CSV header line.
func NewWriterSink(w io.Writer, format string, precision int, header bool) (*WriterSink, error) {
	s := &WriterSink{
		w:         bufio.NewWriter(w),
		format:    format,
		precision: precision,
	}
	switch format {
	case conf.OutputText:
	case conf.OutputCSV:
		s.csv = csv.NewWriter(s.w)
		if header {
			if err := s.csv.Write(csvHeader); err != nil {
				return nil, outputError(err)
			}
		}
	default:
		return nil, errors.Newf("unsupported output format %q", format).
			Component("report").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return s, nil
}

// NewFileSink opens the predictions file. It is truncated unless Append is
// set; a CSV header is only written to an empty file.
func NewFileSink(s conf.FileOutputSettings) (*WriterSink, error) {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fileError(err, s.Path)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if s.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(s.Path, flags, 0o644)
	if err != nil {
		return nil, fileError(err, s.Path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fileError(err, s.Path)
	}

	sink, err := NewWriterSink(f, s.Type, s.Precision, info.Size() == 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	sink.closer = f

	GetLogger().Info("writing predictions",
		logger.String("path", s.Path),
		logger.String("format", s.Type),
		logger.Bool("append", s.Append))
	return sink, nil
}

func (s *WriterSink) Write(_ context.Context, detections []scan.Detection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range detections {
		var err error
		if s.csv != nil {
			err = s.csv.Write(s.record(d))
		} else {
			_, err = fmt.Fprintf(s.w, "%s %s %s\n", d.Label, FormatTime(d.Time), FormatScore(d.Score, s.precision))
		}
		if err != nil {
			return outputError(err)
		}
	}
	s.written += len(detections)
	return s.flush()
}

func (s *WriterSink) record(d scan.Detection) []string {
	return []string{
		FormatTime(d.Time),
		string(d.Label),
		FormatScore(d.Score, s.precision),
		strconv.FormatFloat(float64(d.Amplitude), 'g', -1, 32),
		strconv.Itoa(d.Archive),
		strconv.Itoa(d.Group),
		strconv.Itoa(d.Batch),
		strings.Join(d.Traces, ";"),
	}
}

func (s *WriterSink) flush() error {
	if s.csv != nil {
		s.csv.Flush()
		if err := s.csv.Error(); err != nil {
			return outputError(err)
		}
	}
	if err := s.w.Flush(); err != nil {
		return outputError(err)
	}
	return nil
}

// Written returns the number of detections written.
func (s *WriterSink) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Close flushes and closes the underlying file, if any.
func (s *WriterSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); cerr != nil && err == nil {
			err = outputError(cerr)
		}
		s.closer = nil
	}
	return err
}

func outputError(err error) error {
	return errors.New(err).
		Component("report").
		Category(errors.CategoryOutput).
		Build()
}

func fileError(err error, path string) error {
	return errors.New(err).
		Component("report").
		Category(errors.CategoryFileIO).
		FileContext(path, 0).
		Build()
}
